package trainer

import (
	"context"
	"loanapproval/pkg/domain"
)

//go:generate mockgen -package mocktrainer -source=interface.go -destination=mock/mocktrainer.go *
type Trainer interface {
	// Train fits the transform and the classifier on records, evaluates them on
	// the held-out split and publishes the resulting artifact.
	Train(ctx context.Context, records []domain.LabeledRecord) (*Result, error)
	// TrainFile reads a labeled CSV dataset and trains on it.
	TrainFile(ctx context.Context, dataset string) (*Result, error)
	// Evaluate scores a published artifact against labeled records.
	Evaluate(ctx context.Context, artifact domain.Artifact, records []domain.LabeledRecord) (domain.EvaluationMetrics, error)
	// Enqueue schedules a background training run on dataset. It reports false
	// when an unfinished run for the same dataset already exists.
	Enqueue(ctx context.Context, dataset string) (bool, error)
}
