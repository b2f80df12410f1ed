package main

import (
	"fmt"
	"loanapproval/internal/config"
	"loanapproval/internal/evaluation"
	"loanapproval/internal/pipeline"
	"loanapproval/internal/trainer"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// evaluateCommand constructs the 'evaluate' subcommand that scores a published
// artifact against a labeled dataset without refitting anything.
func evaluateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Scores a published artifact against a labeled dataset",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := logger.Named(cmd.Context(), "evaluate")
			dataset, _ := cmd.Flags().GetString("dataset")
			rawID, _ := cmd.Flags().GetString("artifact")

			b := getBackend(ctx, cfg)
			defer b.close()

			var (
				a   *domain.Artifact
				err error
			)
			if rawID == "" {
				a, err = b.artifacts.LatestArtifact(ctx)
			} else {
				var id domain.ArtifactID
				if err = id.UnmarshalText([]byte(rawID)); err != nil {
					logger.Fatal(ctx, "invalid artifact ID", zap.String("artifact", rawID), zap.Error(err))
				}
				a, err = b.artifacts.ArtifactByID(ctx, id)
			}
			if err != nil {
				logger.Fatal(ctx, "could not get artifact", zap.Error(err))
			}
			if a == nil {
				logger.Fatal(ctx, "artifact not found", zap.String("artifact", rawID))
			}

			records, err := trainer.ReadDataset(dataset)
			if err != nil {
				logger.Fatal(ctx, "could not read dataset", zap.String("dataset", dataset), zap.Error(err))
			}

			tr := trainer.New(trainer.NewOptions(cfg), pipeline.New(pipeline.NewOptions(cfg)), b.artifacts, b.jobs)
			scores, err := tr.Evaluate(ctx, *a, records)
			if err != nil {
				logger.Fatal(ctx, "could not evaluate artifact", zap.Stringer("artifactID", a.ID), zap.Error(err))
			}

			fmt.Printf("artifact: %s\n\n%s\n", a.ID, evaluation.Report(scores)) //nolint: forbidigo
		},
	}

	cmd.Flags().String("dataset", cfg.Worker.Dataset, "Labeled CSV dataset path")
	cmd.Flags().String("artifact", "", "Artifact ID, defaults to the latest published artifact")

	return cmd
}
