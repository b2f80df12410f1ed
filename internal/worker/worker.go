package worker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"loanapproval/internal/serving"
	"loanapproval/internal/trainer"
	"loanapproval/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap/exp/zapslog"
)

// Start registers the training worker and starts processing jobs. predictor
// may be nil when the process does not serve predictions.
func Start(ctx context.Context,
	dbPool *pgxpool.Pool,
	maxWorkers int,
	trainer trainer.Trainer,
	predictor serving.Predictor) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewTrainingWorker(trainer, predictor))

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cmp.Or(max(maxWorkers, 0), 1)},
		},
		Workers: workers,
		Logger:  slog.New(zapslog.NewHandler(logger.Get(ctx).Core())),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}
