package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeatureVector is the numeric representation of one applicant. Columns and
// Values are aligned and their order is fixed for the lifetime of the transform
// state that produced them.
type FeatureVector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// Get returns the value of the named column.
func (v FeatureVector) Get(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}

	return 0, false
}

// FeatureMatrix is a batch of feature vectors sharing one column set.
type FeatureMatrix struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of rows.
func (m FeatureMatrix) Len() int { return len(m.Rows) }

// Row returns row i as a FeatureVector.
func (m FeatureMatrix) Row(i int) FeatureVector {
	return FeatureVector{Columns: m.Columns, Values: m.Rows[i]}
}

// Diagnostic describes a recoverable problem that was absorbed while
// transforming a record: the value was replaced by a defined default.
type Diagnostic struct {
	// Kind is the semantic error kind name, e.g. UNSEEN_CATEGORY.
	Kind string `json:"kind"`
	// Field is the schema field the problem was found in.
	Field string `json:"field"`
	// Value is the offending raw value.
	Value string `json:"value,omitempty"`
	// Message is a human readable description.
	Message string `json:"message"`
}

// ArtifactID uniquely identifies a published training artifact.
type ArtifactID uuid.UUID

// String returns the canonical UUID representation.
func (id ArtifactID) String() string { return uuid.UUID(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id ArtifactID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ArtifactID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// ConfusionMatrix counts outcomes indexed as [actual][predicted].
type ConfusionMatrix [2][2]int

// EvaluationMetrics summarizes classifier quality on a held-out split.
type EvaluationMetrics struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Support   int             `json:"support"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
}

// Artifact is one published training run: the frozen transform state, the
// trained classifier and its evaluation. Artifacts are immutable once
// published; a newer run publishes a new artifact instead of editing one.
type Artifact struct {
	ID        ArtifactID        `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Transform []byte            `json:"transform"`
	Model     []byte            `json:"model"`
	Metrics   EvaluationMetrics `json:"metrics"`
}
