package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/inventory-mapper/internal/cli"
	"github.com/Veraticus/inventory-mapper/internal/config"
	"github.com/Veraticus/inventory-mapper/internal/export"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/spf13/cobra"
)

// runPlan lists the stages a full run executes, in order.
func runPlan(withAccuracy bool) []pipeline.Stage {
	plan := []pipeline.Stage{
		pipeline.StageUpload,
		pipeline.StagePreprocess,
		pipeline.StageMatch,
		pipeline.StageViewMapped,
	}
	if withAccuracy {
		plan = append(plan, pipeline.StageCheckAccuracy)
	}
	return plan
}

func runCmd() *cobra.Command {
	var (
		in         pipeline.Inputs
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage in order",
		Long: `run uploads both product lists, preprocesses, matches and fetches the
mapped products, then optionally checks accuracy. It stops at the first
failing stage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			w := cmd.OutOrStdout()
			handler := cli.NewInterruptHandler(w)
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			plan := runPlan(in.AnswerFile != "")
			bar := cli.NewStageProgress(w, len(plan))
			var notes []string

			for _, stage := range plan {
				handler.SetStage(stage.String())
				bar.Begin(stage.Title())

				c, err := s.orch.Run(ctx, stage, in)
				if err != nil && !errors.As(err, new(*pipeline.ValidationError)) {
					bar.Abort(w)
					return err
				}
				if c.State.Phase != pipeline.PhaseSuccess {
					bar.Abort(w)
					return printOutcome(w, c.State)
				}
				bar.Done()

				notes = append(notes, fmt.Sprintf("%-20s %s", stage.Title(), c.State.Message))
				if c.AutoRetrieve != nil && s.cfg.Download.Auto {
					if path, err := s.download(ctx, *c.AutoRetrieve); err != nil {
						notes = append(notes, cli.FormatWarning("Could not download "+c.AutoRetrieve.FileName+": "+err.Error()))
					} else {
						notes = append(notes, cli.SubtleStyle.Render("Saved "+c.AutoRetrieve.FileName+" to "+path))
					}
				}
			}

			for _, n := range notes {
				writeLine(w, n)
			}

			if report := s.orch.State(pipeline.StageCheckAccuracy).Accuracy; report != nil {
				writeLine(w, cli.RenderAccuracyBox(*report))
			}

			if exportPath == "" {
				return nil
			}
			records := s.orch.State(pipeline.StageViewMapped).Records
			path := config.ExpandPath(exportPath)
			if err := export.WriteRecords(path, records); err != nil {
				return fmt.Errorf("failed to export records: %w", err)
			}
			writeLine(w, cli.FormatSuccess(fmt.Sprintf("Exported %d records to %s", len(records), path)))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.InternalFile, "internal", "", "internal products CSV")
	cmd.Flags().StringVar(&in.ExternalFile, "external", "", "external products CSV")
	cmd.Flags().StringVar(&in.AnswerFile, "check", "", "answer CSV; adds the accuracy check")
	cmd.Flags().StringVar(&exportPath, "export", "", "write the mapped products to a .xlsx or .csv file")
	return cmd
}
