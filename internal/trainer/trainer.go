// Package trainer runs complete training runs: it prepares the feature
// matrices, trains the classifier, evaluates it on the held-out split and
// publishes the result as an immutable artifact.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"loanapproval/internal/artifact"
	"loanapproval/internal/classifier"
	"loanapproval/internal/config"
	"loanapproval/internal/evaluation"
	"loanapproval/internal/ingest"
	"loanapproval/internal/pipeline"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/metrics"
	"loanapproval/pkg/serrors"
	"loanapproval/pkg/storage"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Options configure training runs.
type Options struct {
	// Model configures the classifier.
	Model classifier.Options
	// SplitDir receives a copy of the train and test splits of every published
	// artifact, under a directory named after the artifact ID. Empty disables it.
	SplitDir string
	// MaxAttempts is the maximum number of attempts of a background training job.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Model:       classifier.NewOptions(cfg),
		SplitDir:    filepath.Join(cfg.Artifact.Path, "splits"),
		MaxAttempts: cfg.Worker.MaxAttempts,
	}
}

// Result describes a published training run.
type Result struct {
	Artifact *domain.Artifact
	// Report is the human readable classification report of the held-out split.
	Report string
	// TrainRows and TestRows count the records of the stratified split.
	TrainRows   int
	TestRows    int
	Diagnostics []domain.Diagnostic
}

// trainer is the concrete implementation of the Trainer interface.
type trainer struct {
	options   Options
	pipeline  pipeline.Pipeline
	artifacts storage.ArtifactStorage
	// jobs is nil when the artifact backend has no job queue.
	jobs storage.JobStorage
}

// New creates a Trainer. jobs may be nil, in which case Enqueue is unavailable.
func New(options Options, pipe pipeline.Pipeline, artifacts storage.ArtifactStorage, jobs storage.JobStorage) Trainer {
	return &trainer{
		options:   options,
		pipeline:  pipe,
		artifacts: artifacts,
		jobs:      jobs,
	}
}

func (t *trainer) Train(ctx context.Context, records []domain.LabeledRecord) (_ *Result, err error) {
	ctx = logger.Named(ctx, "trainer")
	defer func() {
		outcome := "published"
		if err != nil {
			outcome = "failed"
		}
		metrics.TrainingRuns.WithLabelValues(outcome).Inc()
	}()

	data, err := t.pipeline.PrepareTrainingData(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("could not prepare training data: %w", err)
	}

	forest, err := classifier.Train(ctx, data.XTrain, data.YTrain, t.options.Model)
	if err != nil {
		return nil, fmt.Errorf("could not train classifier: %w", err)
	}

	predicted, err := forest.PredictAll(data.XTest)
	if err != nil {
		return nil, fmt.Errorf("could not predict test split: %w", err)
	}
	scores, err := evaluation.Evaluate(data.YTest, predicted)
	if err != nil {
		return nil, fmt.Errorf("could not evaluate classifier: %w", err)
	}

	unpublished, err := artifact.Build(data.State, forest, scores)
	if err != nil {
		return nil, fmt.Errorf("could not build artifact: %w", err)
	}
	published, err := t.artifacts.PublishArtifact(ctx, unpublished)
	if err != nil {
		return nil, fmt.Errorf("could not publish artifact: %w", err)
	}

	ctx = logger.WithFields(ctx, zap.Stringer("artifactID", published.ID))
	if err := t.persistSplit(published.ID, data.Split); err != nil {
		// the artifact is already published and usable without its split copy
		logger.Warn(ctx, "could not persist dataset split", zap.Error(err))
	}

	report := evaluation.Report(scores)
	logger.Info(ctx, "artifact published",
		zap.Float64("accuracy", scores.Accuracy),
		zap.Float64("f1", scores.F1),
		zap.Int("diagnostics", len(data.Diagnostics)))
	logger.Debug(ctx, "classification report\n"+report)

	return &Result{
		Artifact:    published,
		Report:      report,
		TrainRows:   len(data.Split.Train()),
		TestRows:    len(data.Split.Test()),
		Diagnostics: data.Diagnostics,
	}, nil
}

func (t *trainer) TrainFile(ctx context.Context, dataset string) (*Result, error) {
	records, err := ReadDataset(dataset)
	if err != nil {
		return nil, err
	}

	return t.Train(logger.WithFields(ctx, zap.String("dataset", dataset)), records)
}

func (t *trainer) Evaluate(ctx context.Context, a domain.Artifact, records []domain.LabeledRecord) (domain.EvaluationMetrics, error) {
	bundle, err := artifact.Open(a)
	if err != nil {
		return domain.EvaluationMetrics{}, err
	}

	data, err := t.pipeline.PrepareEvalData(ctx, records, bundle.State)
	if err != nil {
		return domain.EvaluationMetrics{}, fmt.Errorf("could not prepare evaluation data: %w", err)
	}
	predicted, err := bundle.Forest.PredictAll(data.X)
	if err != nil {
		return domain.EvaluationMetrics{}, fmt.Errorf("could not predict evaluation data: %w", err)
	}

	return evaluation.Evaluate(data.Y, predicted)
}

func (t *trainer) Enqueue(ctx context.Context, dataset string) (bool, error) {
	if t.jobs == nil {
		return false, serrors.With(serrors.ErrUnavailable, "background training requires the postgres artifact backend")
	}
	if dataset == "" {
		return false, serrors.With(serrors.ErrBadRequest, "dataset is required")
	}

	added, err := t.jobs.AddJob(ctx, JobArgs{Dataset: dataset, maxAttempts: t.options.MaxAttempts}, nil)
	if err != nil {
		return false, fmt.Errorf("could not add training job: %w", err)
	}

	return added, nil
}

func (t *trainer) persistSplit(id domain.ArtifactID, split ingest.DatasetSplit) error {
	if t.options.SplitDir == "" {
		return nil
	}

	dir := filepath.Join(t.options.SplitDir, id.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("could not create split directory: %w", err)
	}

	return errors.Join(
		writeDataset(filepath.Join(dir, "train.csv"), split.Train()),
		writeDataset(filepath.Join(dir, "test.csv"), split.Test()),
	)
}

// ReadDataset reads a labeled CSV file.
func ReadDataset(path string) ([]domain.LabeledRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := ingest.ReadLabeled(f)
	if err != nil {
		return nil, fmt.Errorf("could not read dataset %s: %w", path, err)
	}

	return records, nil
}

func writeDataset(path string, records []domain.LabeledRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := ingest.WriteLabeled(f, records); err != nil {
		_ = f.Close()

		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", path, err)
	}

	return nil
}
