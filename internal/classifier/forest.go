// Package classifier trains and applies a bagged forest of CART trees on
// feature matrices produced by the pipeline.
package classifier

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"loanapproval/internal/config"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"go.uber.org/zap"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// Options configure forest training.
type Options struct {
	// Trees is the number of bootstrapped trees.
	Trees int
	// MaxDepth limits tree depth; 0 means unlimited.
	MaxDepth int
	// MinSamplesSplit is the minimum node size that may be split.
	MinSamplesSplit int
	// MinSamplesLeaf is the minimum number of rows on each side of a split.
	MinSamplesLeaf int
	// MaxFeatures is the number of features tried per split; 0 means sqrt of
	// the feature count.
	MaxFeatures int
	// Seed makes training reproducible.
	Seed uint64
	// Workers bounds the number of trees built concurrently; 0 means GOMAXPROCS.
	Workers int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Trees:           cfg.Model.Trees,
		MaxDepth:        cfg.Model.MaxDepth,
		MinSamplesSplit: cfg.Model.MinSamplesSplit,
		MinSamplesLeaf:  cfg.Model.MinSamplesLeaf,
		MaxFeatures:     cfg.Model.MaxFeatures,
		Seed:            cfg.Model.Seed,
		Workers:         cfg.Model.Workers,
	}
}

// DefaultOptions returns 100 unlimited-depth trees with sqrt feature sampling.
func DefaultOptions() Options {
	return Options{Trees: 100, MinSamplesSplit: 2, MinSamplesLeaf: 1, Seed: 42}
}

func (o Options) maxFeatures(n int) int {
	if o.MaxFeatures > 0 {
		return min(o.MaxFeatures, n)
	}

	return max(1, int(math.Sqrt(float64(n))))
}

// Forest is a trained classifier. It is immutable after training and safe for
// concurrent use.
type Forest struct {
	Columns []string `json:"columns"`
	Trees   []Tree   `json:"trees"`
}

// Train fits a forest on x and y.
func Train(ctx context.Context, x domain.FeatureMatrix, y []domain.Label, opts Options) (*Forest, error) {
	switch {
	case x.Len() == 0 || x.Len() != len(y):
		return nil, serrors.With(serrors.ErrInsufficientData, "training needs labeled rows, got %d rows and %d labels", x.Len(), len(y))
	case opts.Trees < 1:
		return nil, serrors.With(serrors.ErrBadRequest, "forest needs at least one tree")
	}
	for i, row := range x.Rows {
		if len(row) != len(x.Columns) {
			return nil, serrors.With(serrors.ErrBadRequest, "row %d has %d values, want %d", i, len(row), len(x.Columns))
		}
	}
	opts.MinSamplesSplit = max(opts.MinSamplesSplit, 2)
	opts.MinSamplesLeaf = max(opts.MinSamplesLeaf, 1)

	forest := &Forest{Columns: slices.Clone(x.Columns), Trees: make([]Tree, opts.Trees)}
	n := x.Len()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cmp.Or(max(opts.Workers, 0), runtime.GOMAXPROCS(0)))
	for t := range opts.Trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("could not build tree %d: %w", t, err)
			}

			seed := opts.Seed + uint64(t)
			rng := rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)) //nolint: gosec
			sample := make([]int, n)
			for i := range sample {
				sample[i] = rng.IntN(n)
			}

			b := &treeBuilder{x: x.Rows, y: y, opts: opts, nFeat: len(x.Columns), rng: rng, tree: &forest.Trees[t]}
			b.build(sample, 0)

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodes := 0
	for i := range forest.Trees {
		nodes += len(forest.Trees[i].Nodes)
	}
	logger.Info(logger.Named(ctx, "classifier"), "forest trained",
		zap.Int("trees", opts.Trees), zap.Int("rows", n), zap.Int("nodes", nodes))

	return forest, nil
}

// PredictProba returns the probability that the application is approved.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if len(x) != len(f.Columns) {
		return 0, serrors.With(serrors.ErrBadRequest, "vector has %d values, model expects %d", len(x), len(f.Columns))
	}

	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}

	return sum / float64(len(f.Trees)), nil
}

// Predict returns the approval decision for x. Ties are rejected.
func (f *Forest) Predict(x []float64) (domain.Label, float64, error) {
	p, err := f.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	if p > 0.5 {
		return domain.LabelApproved, p, nil
	}

	return domain.LabelRejected, p, nil
}

// PredictAll predicts every row of x.
func (f *Forest) PredictAll(x domain.FeatureMatrix) ([]domain.Label, error) {
	if !slices.Equal(x.Columns, f.Columns) {
		return nil, serrors.With(serrors.ErrBadRequest, "matrix columns do not match the model columns")
	}

	out := make([]domain.Label, x.Len())
	for i, row := range x.Rows {
		l, _, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = l
	}

	return out, nil
}

// Marshal encodes the forest for persistence.
func (f *Forest) Marshal() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "encode forest")
	}

	return data, nil
}

// Load decodes a persisted forest.
func Load(data []byte) (*Forest, error) {
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, serrors.Wrap(serrors.ErrMissingFittedArtifact, errors.Wrap(err, "decode forest"), "invalid model")
	}
	if len(f.Trees) == 0 || len(f.Columns) == 0 {
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "model has no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(len(f.Columns)); err != nil {
			return nil, serrors.Wrap(serrors.ErrMissingFittedArtifact, errors.Wrapf(err, "tree %d", i), "invalid tree %d", i)
		}
	}

	return &f, nil
}
