// Package artifact packs a fitted transform state and a trained forest into a
// publishable domain.Artifact and opens published artifacts for use.
package artifact

import (
	"loanapproval/internal/classifier"
	"loanapproval/internal/pipeline"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"slices"

	"github.com/go-faster/errors"
)

// Bundle is an opened artifact. All fields are read only.
type Bundle struct {
	Artifact domain.Artifact
	State    *pipeline.State
	Forest   *classifier.Forest
}

// Build encodes state and forest into an unpublished artifact.
func Build(state *pipeline.State, forest *classifier.Forest, metrics domain.EvaluationMetrics) (domain.Artifact, error) {
	if state == nil || forest == nil {
		return domain.Artifact{}, serrors.With(serrors.ErrMissingFittedArtifact, "artifact needs a transform state and a model")
	}
	if !slices.Equal(state.Columns(), forest.Columns) {
		return domain.Artifact{}, serrors.With(serrors.ErrMissingFittedArtifact, "model columns do not match the transform state")
	}

	transform, err := state.MarshalJSON()
	if err != nil {
		return domain.Artifact{}, errors.Wrap(err, "could not encode transform state")
	}
	model, err := forest.Marshal()
	if err != nil {
		return domain.Artifact{}, errors.Wrap(err, "could not encode model")
	}

	return domain.Artifact{Transform: transform, Model: model, Metrics: metrics}, nil
}

// Open decodes a published artifact. The model must have been trained on the
// exact column order of the transform state.
func Open(a domain.Artifact) (*Bundle, error) {
	state, err := pipeline.LoadState(a.Transform)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load transform state of artifact %s", a.ID)
	}
	forest, err := classifier.Load(a.Model)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load model of artifact %s", a.ID)
	}
	if !slices.Equal(state.Columns(), forest.Columns) {
		return nil, serrors.With(serrors.ErrMissingFittedArtifact,
			"artifact %s: model columns do not match the transform state", a.ID)
	}

	return &Bundle{Artifact: a, State: state, Forest: forest}, nil
}
