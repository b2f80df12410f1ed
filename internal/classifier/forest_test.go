package classifier_test

import (
	"context"
	"loanapproval/internal/classifier"
	"loanapproval/internal/evaluation"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// separable returns rows where the label is approved iff x0 + x1 > 1.
func separable(n int, seed uint64) (domain.FeatureMatrix, []domain.Label) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := domain.FeatureMatrix{Columns: []string{"a", "b", "noise"}}
	y := make([]domain.Label, n)
	for i := range n {
		row := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		x.Rows = append(x.Rows, row)
		if row[0]+row[1] > 1 {
			y[i] = domain.LabelApproved
		}
	}

	return x, y
}

func smallForest() classifier.Options {
	opts := classifier.DefaultOptions()
	opts.Trees = 25

	return opts
}

func TestTrainAndPredict(t *testing.T) {
	x, y := separable(400, 1)
	forest, err := classifier.Train(context.Background(), x, y, smallForest())
	require.NoError(t, err)
	require.Len(t, forest.Trees, 25)

	testX, testY := separable(200, 2)
	pred, err := forest.PredictAll(testX)
	require.NoError(t, err)

	m, err := evaluation.Evaluate(testY, pred)
	require.NoError(t, err)
	require.Greater(t, m.Accuracy, 0.85)

	label, p, err := forest.Predict([]float64{0.95, 0.95, 0.5})
	require.NoError(t, err)
	require.Equal(t, domain.LabelApproved, label)
	require.Greater(t, p, 0.5)

	label, _, err = forest.Predict([]float64{0.05, 0.05, 0.5})
	require.NoError(t, err)
	require.Equal(t, domain.LabelRejected, label)
}

func TestTrainIsDeterministic(t *testing.T) {
	x, y := separable(150, 3)

	a, err := classifier.Train(context.Background(), x, y, smallForest())
	require.NoError(t, err)

	opts := smallForest()
	opts.Workers = 1
	b, err := classifier.Train(context.Background(), x, y, opts)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestMaxDepth(t *testing.T) {
	x, y := separable(200, 4)
	opts := smallForest()
	opts.MaxDepth = 1

	forest, err := classifier.Train(context.Background(), x, y, opts)
	require.NoError(t, err)
	for _, tree := range forest.Trees {
		require.LessOrEqual(t, len(tree.Nodes), 3)
	}
}

func TestMarshalAndLoad(t *testing.T) {
	x, y := separable(100, 5)
	forest, err := classifier.Train(context.Background(), x, y, smallForest())
	require.NoError(t, err)

	data, err := forest.Marshal()
	require.NoError(t, err)
	loaded, err := classifier.Load(data)
	require.NoError(t, err)

	for _, row := range x.Rows[:20] {
		want, err := forest.PredictProba(row)
		require.NoError(t, err)
		got, err := loaded.PredictProba(row)
		require.NoError(t, err)
		require.InDelta(t, want, got, 0)
	}
}

func TestLoadRejectsInvalidModels(t *testing.T) {
	for name, data := range map[string]string{
		"not json":        "{",
		"no trees":        `{"columns":["a"],"trees":[]}`,
		"bad feature":     `{"columns":["a"],"trees":[{"nodes":[{"f":3,"t":0,"l":1,"r":2},{"l":-1,"r":-1,"p":0},{"l":-1,"r":-1,"p":1}]}]}`,
		"cyclic child":    `{"columns":["a"],"trees":[{"nodes":[{"f":0,"t":0,"l":0,"r":0}]}]}`,
		"bad probability": `{"columns":["a"],"trees":[{"nodes":[{"l":-1,"r":-1,"p":2}]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := classifier.Load([]byte(data))
			require.ErrorIs(t, err, serrors.ErrMissingFittedArtifact)
		})
	}
}

func TestTrainAndPredictErrors(t *testing.T) {
	_, err := classifier.Train(context.Background(), domain.FeatureMatrix{}, nil, smallForest())
	require.ErrorIs(t, err, serrors.ErrInsufficientData)

	x, y := separable(10, 6)
	_, err = classifier.Train(context.Background(), x, y, classifier.Options{})
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	forest, err := classifier.Train(context.Background(), x, y, smallForest())
	require.NoError(t, err)
	_, err = forest.PredictProba([]float64{1})
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	_, err = forest.PredictAll(domain.FeatureMatrix{Columns: []string{"other"}})
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}

func TestTrainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, y := separable(50, 7)
	_, err := classifier.Train(ctx, x, y, smallForest())
	require.ErrorIs(t, err, context.Canceled)
}
