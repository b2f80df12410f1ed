package pipeline

import (
	"context"
	"loanapproval/pkg/domain"
)

//go:generate mockgen -package mockpipeline -source=interface.go -destination=mock/mockpipeline.go *
type Pipeline interface {
	// PrepareTrainingData splits labeled records, fits the transform state on the
	// training split, transforms both splits and oversamples the training split.
	PrepareTrainingData(ctx context.Context, records []domain.LabeledRecord) (*TrainingData, error)
	// PrepareEvalData transforms labeled records with a frozen state.
	PrepareEvalData(ctx context.Context, records []domain.LabeledRecord, state *State) (*EvalData, error)
	// PrepareInferenceRecord transforms a single unlabeled record with a frozen state.
	PrepareInferenceRecord(ctx context.Context, record domain.RawRecord, state *State) (*Inference, error)
}
