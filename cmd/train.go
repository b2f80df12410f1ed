package main

import (
	"fmt"
	"loanapproval/internal/config"
	"loanapproval/internal/pipeline"
	"loanapproval/internal/trainer"
	"loanapproval/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// trainCommand constructs the 'train' subcommand. It trains on a labeled CSV
// dataset and publishes the artifact, or queues a background run with --queue.
func trainCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Trains the classifier on a labeled dataset and publishes the artifact",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := logger.Named(cmd.Context(), "train")
			dataset, _ := cmd.Flags().GetString("dataset")
			queue, _ := cmd.Flags().GetBool("queue")

			b := getBackend(ctx, cfg)
			defer b.close()

			tr := trainer.New(trainer.NewOptions(cfg), pipeline.New(pipeline.NewOptions(cfg)), b.artifacts, b.jobs)

			if queue {
				enqueued, err := tr.Enqueue(ctx, dataset)
				if err != nil {
					logger.Fatal(ctx, "could not queue training run", zap.Error(err))
				}
				logger.Info(ctx, "training run queued", zap.String("dataset", dataset), zap.Bool("enqueued", enqueued))

				return
			}

			res, err := tr.TrainFile(ctx, dataset)
			if err != nil {
				logger.Fatal(ctx, "could not train", zap.String("dataset", dataset), zap.Error(err))
			}

			fmt.Printf("artifact: %s\ntrain rows: %d, test rows: %d\n\n%s\n", //nolint: forbidigo
				res.Artifact.ID, res.TrainRows, res.TestRows, res.Report)
		},
	}

	cmd.Flags().String("dataset", cfg.Worker.Dataset, "Labeled CSV dataset path")
	cmd.Flags().Bool("queue", false, "Queue a background training run instead of training now (postgres backend)")

	return cmd
}
