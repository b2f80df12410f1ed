// Package normalize applies the fixed log1p transform to skewed columns and the
// fitted Yeo-Johnson power transform to the credit score column.
package normalize

import (
	"loanapproval/internal/features"
	"loanapproval/internal/impute"
	"loanapproval/pkg/serrors"
	"math"
)

// Log1p is the fixed transform of skewed count and amount columns.
func Log1p(x float64) float64 { return math.Log1p(x) }

// Expm1 inverts Log1p.
func Expm1(y float64) float64 { return math.Expm1(y) }

// Apply normalizes an imputed record with the frozen power parameters. A nil
// params fails with ErrMissingFittedArtifact; it never falls back to identity.
func Apply(r impute.Imputed, params *PowerParams) ([features.NumColumns]float64, error) {
	if params == nil {
		return [features.NumColumns]float64{}, serrors.With(serrors.ErrMissingFittedArtifact,
			"power transform parameters for %q are not loaded", features.ColumnName(features.PowerColumn()))
	}

	out := r.Record().Values
	for _, c := range features.Log1pColumns() {
		out[c] = Log1p(out[c])
	}
	c := features.PowerColumn()
	out[c] = params.Transform(out[c])

	return out, nil
}
