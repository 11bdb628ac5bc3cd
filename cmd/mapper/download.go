package main

import (
	"github.com/Veraticus/inventory-mapper/internal/cli"
	"github.com/Veraticus/inventory-mapper/internal/config"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/spf13/cobra"
)

func downloadCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <path-or-name>",
		Short: "Download a file produced by the service",
		Long: `download fetches a generated file from the service's download endpoint.
The argument may be a bare file name or a server-side path as reported by a
stage; only its last segment is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			artifact, err := pipeline.ResolveArtifact(args[0], s.client.BaseURL())
			if err != nil {
				return err
			}
			if dir != "" {
				s.cfg.Download.Dir = config.ExpandPath(dir)
			}

			path, err := s.download(ctx, artifact)
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), cli.FormatSuccess("Saved "+artifact.FileName+" to "+path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "target directory (default: download.dir)")
	return cmd
}
