package main

import (
	"github.com/Veraticus/inventory-mapper/internal/cli"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/spf13/cobra"
)

func uploadCmd() *cobra.Command {
	var (
		internalFile string
		externalFile string
		noDownload   bool
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the internal and external product lists",
		Long: `Upload sends both product CSV files to the service. When the service
reports an upload report file it is downloaded automatically.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			c, err := s.runStage(ctx, w, pipeline.StageUpload, pipeline.Inputs{
				InternalFile: internalFile,
				ExternalFile: externalFile,
			})
			if err != nil {
				return err
			}

			if c.AutoRetrieve == nil {
				return nil
			}
			writeLine(w, cli.FormatInfo("Report available at "+c.AutoRetrieve.DerivedURL))
			if noDownload || !s.cfg.Download.Auto {
				return nil
			}

			path, err := s.download(ctx, *c.AutoRetrieve)
			if err != nil {
				// The upload itself succeeded.
				writeLine(w, cli.FormatWarning("Could not download "+c.AutoRetrieve.FileName+": "+err.Error()))
				return nil
			}
			writeLine(w, cli.FormatSuccess("Saved "+c.AutoRetrieve.FileName+" to "+path))
			return nil
		},
	}

	cmd.Flags().StringVar(&internalFile, "internal", "", "internal products CSV")
	cmd.Flags().StringVar(&externalFile, "external", "", "external products CSV")
	cmd.Flags().BoolVar(&noDownload, "no-download", false, "do not download the upload report")

	return cmd
}
