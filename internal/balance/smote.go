// Package balance oversamples the minority class of a training matrix by
// interpolating between minority rows and their nearest minority neighbours.
package balance

import (
	"cmp"
	"context"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
	"math"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Options configures oversampling.
type Options struct {
	// K is the number of nearest minority neighbours to interpolate towards.
	K int
	// Ratio is the desired minority to majority count ratio after oversampling.
	Ratio float64
	// Seed makes the synthetic rows reproducible.
	Seed uint64
}

// DefaultOptions returns k=5, a full balance and seed 42.
func DefaultOptions() Options {
	return Options{K: 5, Ratio: 1, Seed: 42}
}

// SMOTE returns the input rows followed by synthetic minority rows. The input
// slices are not modified. It must only be called with training data.
func SMOTE(ctx context.Context, x [][]float64, y []domain.Label, opts Options) ([][]float64, []domain.Label, error) {
	if len(y) == 0 || len(x) != len(y) {
		return nil, nil, serrors.With(serrors.ErrInsufficientData,
			"oversampling needs labeled rows, got %d rows and %d labels", len(x), len(y))
	}
	if opts.K < 1 || opts.Ratio <= 0 || opts.Ratio > 1 {
		return nil, nil, serrors.With(serrors.ErrBadRequest, "invalid oversampling options k=%d ratio=%v", opts.K, opts.Ratio)
	}

	var byClass [2][]int
	for i, l := range y {
		if !l.Valid() {
			return nil, nil, serrors.With(serrors.ErrSchemaViolation, "row %d has label %d, want 0 or 1", i, l)
		}
		byClass[l] = append(byClass[l], i)
	}
	minority, majority := domain.LabelApproved, domain.LabelRejected
	if len(byClass[minority]) > len(byClass[majority]) {
		minority, majority = majority, minority
	}
	minIdx := byClass[minority]

	outX := make([][]float64, len(x))
	for i := range x {
		outX[i] = slices.Clone(x[i])
	}
	outY := slices.Clone(y)

	target := int(math.Round(opts.Ratio * float64(len(byClass[majority]))))
	nSynthetic := target - len(minIdx)
	if nSynthetic <= 0 {
		return outX, outY, nil
	}
	if len(minIdx) < 2 {
		return nil, nil, serrors.With(serrors.ErrInsufficientData,
			"minority class %d has %d rows, at least 2 are needed to oversample", minority, len(minIdx))
	}

	k := min(opts.K, len(minIdx)-1)
	neighbours := nearestNeighbours(x, minIdx, k)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed)) //nolint: gosec

	diff := make([]float64, len(x[0]))
	for range nSynthetic {
		i := rng.IntN(len(minIdx))
		base := x[minIdx[i]]
		nn := x[neighbours[i][rng.IntN(k)]]
		gap := rng.Float64()

		floats.SubTo(diff, nn, base)
		row := make([]float64, len(base))
		floats.AddScaledTo(row, base, gap, diff)

		outX = append(outX, row)
		outY = append(outY, minority)
	}

	logger.Info(logger.Named(ctx, "balance"), "minority class oversampled",
		zap.Int("minority", int(minority)),
		zap.Int("before", len(minIdx)),
		zap.Int("synthetic", nSynthetic),
		zap.Int("k", k))

	return outX, outY, nil
}

// nearestNeighbours returns, for every minority row, the indexes in x of its k
// nearest minority rows by euclidean distance, excluding itself.
func nearestNeighbours(x [][]float64, minIdx []int, k int) [][]int {
	type candidate struct {
		idx  int
		dist float64
	}

	out := make([][]int, len(minIdx))
	cands := make([]candidate, 0, len(minIdx)-1)
	for i, a := range minIdx {
		cands = cands[:0]
		for j, b := range minIdx {
			if i == j {
				continue
			}
			cands = append(cands, candidate{idx: b, dist: floats.Distance(x[a], x[b], 2)})
		}
		slices.SortStableFunc(cands, func(p, q candidate) int { return cmp.Compare(p.dist, q.dist) })

		nn := make([]int, k)
		for n := range k {
			nn[n] = cands[n].idx
		}
		out[i] = nn
	}

	return out
}
