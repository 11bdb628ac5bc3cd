package main

import (
	"fmt"

	"github.com/Veraticus/inventory-mapper/internal/cli"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/storage"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

func historyCmd() *cobra.Command {
	var (
		limit     int
		stageName string
		downloads bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past stage attempts from the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.journal == nil {
				return fmt.Errorf("the journal is disabled or unavailable")
			}

			w := cmd.OutOrStdout()
			if downloads {
				list, err := s.journal.ListDownloads(ctx, limit)
				if err != nil {
					return err
				}
				writeLine(w, renderDownloads(list))
				return nil
			}

			filter := storage.AttemptFilter{Limit: limit}
			if stageName != "" {
				stage, err := pipeline.ParseStage(stageName)
				if err != nil {
					return err
				}
				filter.Stage = stage.String()
			}

			attempts, err := s.journal.ListAttempts(ctx, filter)
			if err != nil {
				return err
			}
			writeLine(w, renderAttempts(attempts))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	cmd.Flags().StringVar(&stageName, "stage", "", "only show attempts of this stage")
	cmd.Flags().BoolVar(&downloads, "downloads", false, "show downloads instead of attempts")
	return cmd
}

func renderAttempts(attempts []storage.Attempt) string {
	if len(attempts) == 0 {
		return cli.FormatInfo("No attempts recorded yet.")
	}

	rows := make([][]string, len(attempts))
	for i, a := range attempts {
		elapsed := "-"
		if a.Elapsed != nil {
			elapsed = fmt.Sprintf("%.2f s", *a.Elapsed)
		}
		rows[i] = []string{
			a.FinishedAt.Local().Format(timeLayout),
			a.Stage,
			cli.FormatPhaseName(a.Phase),
			elapsed,
			a.Message,
		}
	}
	return cli.RenderTable([]string{"Finished", "Stage", "Result", "Elapsed", "Message"}, rows)
}

func renderDownloads(list []storage.Download) string {
	if len(list) == 0 {
		return cli.FormatInfo("No downloads recorded yet.")
	}

	rows := make([][]string, len(list))
	for i, d := range list {
		outcome := d.LocalPath
		if d.Error != "" {
			outcome = cli.ErrorIcon + " " + d.Error
		}
		rows[i] = []string{d.DownloadedAt.Local().Format(timeLayout), d.FileName, outcome}
	}
	return cli.RenderTable([]string{"When", "File", "Saved to"}, rows)
}
