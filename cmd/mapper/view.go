package main

import (
	"fmt"

	"github.com/Veraticus/inventory-mapper/internal/cli"
	"github.com/Veraticus/inventory-mapper/internal/config"
	"github.com/Veraticus/inventory-mapper/internal/export"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/spf13/cobra"
)

func viewCmd() *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"view-mapped"},
		Short:   "Show the mapped products",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			c, err := s.runStage(ctx, w, pipeline.StageViewMapped, pipeline.Inputs{})
			if err != nil {
				return err
			}
			if c.State.Empty {
				return nil
			}

			writeLine(w, cli.RenderRecords(c.State.Records))

			if exportPath == "" {
				return nil
			}
			path := config.ExpandPath(exportPath)
			if err := export.WriteRecords(path, c.State.Records); err != nil {
				return fmt.Errorf("failed to export records: %w", err)
			}
			writeLine(w, cli.FormatSuccess(fmt.Sprintf("Exported %d records to %s", len(c.State.Records), path)))
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "also write the records to a .xlsx or .csv file")
	return cmd
}
