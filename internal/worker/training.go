package worker

import (
	"context"
	"errors"
	"fmt"
	"loanapproval/internal/serving"
	"loanapproval/internal/trainer"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// TrainingWorker is a River worker that runs a training job and then makes the
// predictor of this process serve the freshly published artifact.
//
// Errors caused by the dataset itself (schema violations, too little data)
// cancel the job since retrying cannot fix them. Other errors are returned so
// River retries the job up to its maximum attempts.
type TrainingWorker struct {
	river.WorkerDefaults[trainer.JobArgs]

	trainer   trainer.Trainer
	predictor serving.Predictor
}

// NewTrainingWorker constructs a TrainingWorker. predictor may be nil.
func NewTrainingWorker(trainer trainer.Trainer, predictor serving.Predictor) *TrainingWorker {
	return &TrainingWorker{trainer: trainer, predictor: predictor}
}

// Work executes a single training job.
func (w *TrainingWorker) Work(ctx context.Context, job *river.Job[trainer.JobArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID), zap.String("dataset", job.Args.Dataset))

	res, err := w.trainer.TrainFile(ctx, job.Args.Dataset)
	if err != nil {
		if errors.Is(err, serrors.ErrSchemaViolation) || errors.Is(err, serrors.ErrInsufficientData) {
			logger.Warn(ctx, "training job canceled, dataset is unusable", zap.Error(err))

			return river.JobCancel(err) //nolint: wrapcheck
		}

		logger.Error(ctx, "error in training run", zap.Error(err))

		return fmt.Errorf("could not train: %w", err)
	}

	logger.Info(ctx, "training job finished", zap.Stringer("artifactID", res.Artifact.ID))

	if w.predictor != nil {
		if _, err := w.predictor.Reload(ctx); err != nil {
			// the artifact is published; the refresh loop picks it up later
			logger.Warn(ctx, "could not reload predictor", zap.Error(err))
		}
	}

	return nil
}
