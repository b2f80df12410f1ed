package normalize_test

import (
	"loanapproval/internal/features"
	"loanapproval/internal/impute"
	"loanapproval/internal/normalize"
	"loanapproval/pkg/serrors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog1pRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1e-9, 0.5, 3, 250000, 1e12} {
		require.InDelta(t, v, normalize.Expm1(normalize.Log1p(v)), 1e-9*math.Max(1, v))
	}
}

func TestFitPowerHeldOutValue(t *testing.T) {
	params, err := normalize.FitPower([]float64{300, 450, 620, 900})
	require.NoError(t, err)

	train := []float64{300, 450, 620, 900}
	prev := math.Inf(-1)
	for _, v := range append(train, 1000) {
		got := params.Transform(v)
		require.False(t, math.IsNaN(got) || math.IsInf(got, 0), "transform(%v) = %v", v, got)
		require.Greater(t, got, prev)
		prev = got
	}
}

func TestFitPowerStandardizes(t *testing.T) {
	x := []float64{-1, -1, 300, 450, 520, 610, 620, 700, 710, 900}
	params, err := normalize.FitPower(x)
	require.NoError(t, err)

	var sum, sumSq float64
	for _, v := range x {
		y := params.Transform(v)
		sum += y
		sumSq += y * y
	}
	n := float64(len(x))
	require.InDelta(t, 0, sum/n, 1e-9)
	require.InDelta(t, 1, sumSq/n, 1e-9)
}

func TestPowerInverse(t *testing.T) {
	params, err := normalize.FitPower([]float64{-1, 300, 450, 620, 900})
	require.NoError(t, err)

	for _, v := range []float64{-1, -0.5, 0, 300, 777} {
		require.InDelta(t, v, params.Inverse(params.Transform(v)), 1e-6*math.Max(1, math.Abs(v)))
	}
}

func TestFitPowerConstantInput(t *testing.T) {
	params, err := normalize.FitPower([]float64{650, 650, 650})
	require.NoError(t, err)
	require.InDelta(t, 1.0, params.Lambda, 0)
	require.InDelta(t, 1.0, params.Std, 0)
	require.InDelta(t, 0.0, params.Transform(650), 1e-12)
	require.False(t, math.IsNaN(params.Transform(10)))
}

func TestFitPowerRejectsEmptyInput(t *testing.T) {
	_, err := normalize.FitPower(nil)
	require.ErrorIs(t, err, serrors.ErrInsufficientData)

	_, err = normalize.FitPower([]float64{1, math.NaN()})
	require.ErrorIs(t, err, serrors.ErrInsufficientData)
}

func TestApply(t *testing.T) {
	var d features.Derived
	for c := range features.NumColumns {
		d = d.With(c, 3)
	}
	imputed, err := impute.Apply(d, impute.Stats{})
	require.NoError(t, err)

	_, err = normalize.Apply(imputed, nil)
	require.ErrorIs(t, err, serrors.ErrMissingFittedArtifact)

	params := &normalize.PowerParams{Lambda: 1, Mean: 0, Std: 1}
	got, err := normalize.Apply(imputed, params)
	require.NoError(t, err)

	for _, c := range features.Log1pColumns() {
		require.InDelta(t, math.Log1p(3), got[c], 1e-12, features.ColumnName(c))
	}
	require.InDelta(t, 3.0, got[features.ColCreditScore], 1e-12)
	require.InDelta(t, 3.0, got[features.ColAge], 0)

	// input is not mutated
	require.InDelta(t, 3.0, imputed.Value(features.ColSavingsBalance), 0)
}
