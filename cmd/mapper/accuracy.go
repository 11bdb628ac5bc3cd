package main

import (
	"fmt"

	"github.com/Veraticus/inventory-mapper/internal/cli"
	"github.com/Veraticus/inventory-mapper/internal/config"
	"github.com/Veraticus/inventory-mapper/internal/export"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/spf13/cobra"
)

func checkAccuracyCmd() *cobra.Command {
	var (
		answerFile string
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "check-accuracy",
		Short: "Score the mapping against an answer file",
		Long: `check-accuracy uploads a CSV of known correct mappings (external name in
the first column, internal name in the second) and prints the score and the
per-row comparison.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			c, err := s.runStage(ctx, w, pipeline.StageCheckAccuracy, pipeline.Inputs{AnswerFile: answerFile})
			if err != nil {
				return err
			}
			report := c.State.Accuracy
			if report == nil {
				return nil
			}

			writeLine(w, cli.RenderAccuracyBox(*report))
			writeLine(w, cli.RenderAccuracy(*report))

			if exportPath == "" {
				return nil
			}
			path := config.ExpandPath(exportPath)
			if err := export.WriteAccuracy(path, *report); err != nil {
				return fmt.Errorf("failed to export accuracy report: %w", err)
			}
			writeLine(w, cli.FormatSuccess("Exported accuracy report to "+path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&answerFile, "file", "f", "", "answer CSV file")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the report to a .xlsx or .csv file")
	return cmd
}
