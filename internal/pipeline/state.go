package pipeline

import (
	"encoding/json"
	"loanapproval/internal/features"
	"loanapproval/internal/impute"
	"loanapproval/internal/normalize"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"slices"

	"github.com/go-faster/errors"
)

// stateVersion is bumped whenever the persisted layout or the feature contract
// changes. Artifacts of another version are refused.
const stateVersion = 1

// State is the frozen transform fitted on a training split: imputation
// statistics, power transform parameters and the loan reason vocabulary. A State
// is only obtained from a fit or from LoadState and is never modified, so it can
// be shared by any number of concurrent apply calls.
type State struct {
	imputation impute.Stats
	power      normalize.PowerParams
	vocabulary features.Vocabulary
	columns    []string
}

func newState(stats impute.Stats, power normalize.PowerParams, vocab features.Vocabulary) *State {
	return &State{
		imputation: stats,
		power:      power,
		vocabulary: vocab,
		columns:    columnsFor(vocab),
	}
}

// columnsFor returns the feature column order for a vocabulary: base columns,
// loan reason one-hot columns, then the average platform rating.
func columnsFor(vocab features.Vocabulary) []string {
	cols := features.BaseColumns()
	cols = append(cols, vocab.Columns()...)

	return append(cols, features.AvgPlatformRating)
}

// Columns returns the feature column names in vector order.
func (s *State) Columns() []string { return slices.Clone(s.columns) }

// Imputation returns the fitted imputation statistics.
func (s *State) Imputation() impute.Stats { return s.imputation }

// Power returns the fitted credit score power transform.
func (s *State) Power() normalize.PowerParams { return s.power }

// Vocabulary returns the fitted loan reason vocabulary.
func (s *State) Vocabulary() features.Vocabulary { return s.vocabulary }

type persistedState struct {
	Version    int                    `json:"version"`
	Imputation *impute.Stats          `json:"imputation"`
	Power      *normalize.PowerParams `json:"power_transform"`
	Vocabulary []domain.LoanReason    `json:"loan_reason_vocabulary"`
	Columns    []string               `json:"columns"`
}

// MarshalJSON encodes the state for persistence.
func (s *State) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(persistedState{
		Version:    stateVersion,
		Imputation: &s.imputation,
		Power:      &s.power,
		Vocabulary: s.vocabulary.Categories(),
		Columns:    s.columns,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode transform state")
	}

	return data, nil
}

// LoadState decodes a persisted state. Missing or incompatible parts fail with
// ErrMissingFittedArtifact; nothing is defaulted or refitted.
func LoadState(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "transform state is empty")
	}

	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, serrors.Wrap(serrors.ErrMissingFittedArtifact, errors.Wrap(err, "decode transform state"), "invalid transform state")
	}

	switch {
	case p.Version != stateVersion:
		return nil, serrors.With(serrors.ErrMissingFittedArtifact,
			"transform state version %d is not supported, want %d", p.Version, stateVersion)
	case p.Imputation == nil:
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "transform state has no imputation statistics")
	case p.Power == nil:
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "transform state has no power transform parameters")
	case p.Power.Std <= 0:
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "power transform scale %v is invalid", p.Power.Std)
	case len(p.Vocabulary) == 0:
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "transform state has no loan reason vocabulary")
	}

	vocab, err := features.NewVocabulary(p.Vocabulary)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrMissingFittedArtifact, errors.Wrap(err, "decode vocabulary"), "invalid loan reason vocabulary")
	}

	s := newState(*p.Imputation, *p.Power, vocab)
	if !slices.Equal(s.columns, p.Columns) {
		return nil, serrors.With(serrors.ErrMissingFittedArtifact,
			"transform state columns %q do not match the feature schema %q", p.Columns, s.columns)
	}

	return s, nil
}
