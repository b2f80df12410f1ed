// Package serving answers loan decisions with the most recently published
// artifact. The artifact in use is swapped atomically, so a request always
// sees one consistent transform state and model pair.
package serving

import (
	"context"
	"fmt"
	"loanapproval/internal/artifact"
	"loanapproval/internal/evaluation"
	"loanapproval/internal/pipeline"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/metrics"
	"loanapproval/pkg/serrors"
	"loanapproval/pkg/storage"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Prediction is a served loan decision.
type Prediction struct {
	ArtifactID domain.ArtifactID
	Vector     domain.FeatureVector
	// Probability is the share of trees voting for approval.
	Probability        float64
	Label              domain.Label
	FraudFlag          bool
	FirstTimeApplicant bool
	Diagnostics        []domain.Diagnostic
}

// Decision returns "Approved" or "Rejected".
func (p Prediction) Decision() string { return p.Label.Decision() }

// Features is a record transformed by the artifact identified by ArtifactID.
type Features struct {
	ArtifactID domain.ArtifactID
	pipeline.Inference
}

// predictor is the concrete implementation of the Predictor interface.
type predictor struct {
	pipeline  pipeline.Pipeline
	artifacts storage.ArtifactStorage

	current atomic.Pointer[artifact.Bundle]
	// reloadMu serializes reloads; readers never take it.
	reloadMu sync.Mutex
}

// New creates a Predictor. It serves nothing until Reload succeeds.
func New(pipe pipeline.Pipeline, artifacts storage.ArtifactStorage) Predictor {
	return &predictor{pipeline: pipe, artifacts: artifacts}
}

func (p *predictor) bundle() (*artifact.Bundle, error) {
	b := p.current.Load()
	if b == nil {
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "no trained artifact has been loaded")
	}

	return b, nil
}

func (p *predictor) Features(ctx context.Context, record domain.RawRecord) (*Features, error) {
	b, err := p.bundle()
	if err != nil {
		return nil, err
	}

	inf, err := p.pipeline.PrepareInferenceRecord(ctx, record, b.State)
	if err != nil {
		return nil, err
	}

	return &Features{ArtifactID: b.Artifact.ID, Inference: *inf}, nil
}

func (p *predictor) Predict(ctx context.Context, record domain.RawRecord) (*Prediction, error) {
	b, err := p.bundle()
	if err != nil {
		return nil, err
	}

	inf, err := p.pipeline.PrepareInferenceRecord(ctx, record, b.State)
	if err != nil {
		return nil, err
	}
	label, probability, err := b.Forest.Predict(inf.Vector.Values)
	if err != nil {
		return nil, fmt.Errorf("could not classify record: %w", err)
	}
	metrics.Predictions.WithLabelValues(label.Decision()).Inc()

	return &Prediction{
		ArtifactID:         b.Artifact.ID,
		Vector:             inf.Vector,
		Probability:        probability,
		Label:              label,
		FraudFlag:          inf.FraudFlag,
		FirstTimeApplicant: inf.FirstTimeApplicant,
		Diagnostics:        inf.Diagnostics,
	}, nil
}

func (p *predictor) Current() *domain.Artifact {
	b := p.current.Load()
	if b == nil {
		return nil
	}
	a := b.Artifact

	return &a
}

func (p *predictor) Reload(ctx context.Context) (bool, error) {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	latest, err := p.artifacts.LatestArtifact(ctx)
	if err != nil {
		return false, fmt.Errorf("could not get latest artifact: %w", err)
	}
	if latest == nil {
		return false, nil
	}

	old := p.current.Load()
	if old != nil && old.Artifact.ID == latest.ID {
		return false, nil
	}

	next, err := artifact.Open(*latest)
	if err != nil {
		return false, err
	}
	p.current.Store(next)

	if old != nil {
		metrics.ArtifactInfo.DeleteLabelValues(old.Artifact.ID.String())
	}
	metrics.ArtifactInfo.WithLabelValues(latest.ID.String()).Set(1)
	evaluation.Publish(latest.Metrics)

	logger.Info(ctx, "artifact loaded",
		zap.Stringer("artifactID", latest.ID),
		zap.Time("createdAt", latest.CreatedAt),
		zap.Float64("accuracy", latest.Metrics.Accuracy))

	return true, nil
}

// Refresh reloads the predictor every interval until ctx is done. Failed
// reloads are logged and the previous artifact stays in service.
func Refresh(ctx context.Context, p Predictor, interval time.Duration) {
	ctx = logger.Named(ctx, "serving")
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Reload(ctx); err != nil {
				logger.Error(ctx, "could not reload artifact", zap.Error(err))
			}
		}
	}
}
