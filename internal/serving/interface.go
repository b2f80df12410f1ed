package serving

import (
	"context"
	"loanapproval/pkg/domain"
)

//go:generate mockgen -package mockserving -source=interface.go -destination=mock/mockserving.go *
type Predictor interface {
	// Predict transforms record with the current artifact and classifies it.
	Predict(ctx context.Context, record domain.RawRecord) (*Prediction, error)
	// Features transforms record with the current artifact without classifying it.
	Features(ctx context.Context, record domain.RawRecord) (*Features, error)
	// Current returns the artifact being served, or nil before the first load.
	Current() *domain.Artifact
	// Reload swaps in the latest published artifact. It reports whether the
	// served artifact changed.
	Reload(ctx context.Context) (bool, error)
}
