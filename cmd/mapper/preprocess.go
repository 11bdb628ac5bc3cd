package main

import (
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/spf13/cobra"
)

func preprocessCmd() *cobra.Command {
	return messageStageCmd("preprocess", "Clean both product lists and build embeddings", pipeline.StagePreprocess)
}

func matchCmd() *cobra.Command {
	return messageStageCmd("match", "Map external products to internal ones", pipeline.StageMatch)
}

// messageStageCmd builds a command for a stage that takes no input and only
// reports a message.
func messageStageCmd(use, short string, stage pipeline.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = s.runStage(ctx, cmd.OutOrStdout(), stage, pipeline.Inputs{})
			return err
		},
	}
}
