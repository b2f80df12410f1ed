package trainer_test

import (
	"context"
	"errors"
	"loanapproval/internal/artifact"
	"loanapproval/internal/classifier"
	"loanapproval/internal/fixture"
	"loanapproval/internal/ingest"
	"loanapproval/internal/pipeline"
	"loanapproval/internal/trainer"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
	mockstorage "loanapproval/pkg/storage/mock"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func options(t *testing.T) trainer.Options {
	t.Helper()
	model := classifier.DefaultOptions()
	model.Trees = 10

	return trainer.Options{Model: model, SplitDir: t.TempDir(), MaxAttempts: 2}
}

// publishing stamps the artifact the way a real store does.
func publishing(_ context.Context, a domain.Artifact) (*domain.Artifact, error) {
	a.ID = domain.ArtifactID(uuid.New())

	return &a, nil
}

func TestTrain_PublishesArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	artifacts := mockstorage.NewMockArtifactStorage(ctrl)
	artifacts.EXPECT().PublishArtifact(gomock.Any(), gomock.Any()).DoAndReturn(publishing)

	opts := options(t)
	tr := trainer.New(opts, pipeline.New(pipeline.DefaultOptions()), artifacts, nil)

	res, err := tr.Train(context.Background(), fixture.Dataset(300, 1))
	require.NoError(t, err)
	require.Equal(t, 300, res.TrainRows+res.TestRows)
	require.Equal(t, res.TestRows, res.Artifact.Metrics.Support)
	require.Greater(t, res.Artifact.Metrics.Accuracy, 0.6)
	require.Contains(t, res.Report, "confusion matrix")

	bundle, err := artifact.Open(*res.Artifact)
	require.NoError(t, err)
	require.Equal(t, bundle.State.Columns(), bundle.Forest.Columns)

	dir := filepath.Join(opts.SplitDir, res.Artifact.ID.String())
	for name, rows := range map[string]int{"train.csv": res.TrainRows, "test.csv": res.TestRows} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		records, err := ingest.ReadLabeled(f)
		_ = f.Close()
		require.NoError(t, err)
		require.Len(t, records, rows)
	}
}

func TestTrain_IsReproducible(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var models [][]byte
	artifacts := mockstorage.NewMockArtifactStorage(ctrl)
	artifacts.EXPECT().PublishArtifact(gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(ctx context.Context, a domain.Artifact) (*domain.Artifact, error) {
			models = append(models, a.Model)

			return publishing(ctx, a)
		})

	tr := trainer.New(options(t), pipeline.New(pipeline.DefaultOptions()), artifacts, nil)
	for range 2 {
		_, err := tr.Train(context.Background(), fixture.Dataset(150, 4))
		require.NoError(t, err)
	}
	require.Equal(t, models[0], models[1])
}

func TestTrain_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	artifacts := mockstorage.NewMockArtifactStorage(ctrl)
	tr := trainer.New(options(t), pipeline.New(pipeline.DefaultOptions()), artifacts, nil)

	// nothing is published when preparation fails
	_, err := tr.Train(context.Background(), fixture.Dataset(1, 1))
	require.ErrorIs(t, err, serrors.ErrInsufficientData)

	storeErr := errors.New("disk full")
	artifacts.EXPECT().PublishArtifact(gomock.Any(), gomock.Any()).Return(nil, storeErr)
	_, err = tr.Train(context.Background(), fixture.Dataset(100, 2))
	require.ErrorIs(t, err, storeErr)
}

func TestTrainFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	artifacts := mockstorage.NewMockArtifactStorage(ctrl)
	artifacts.EXPECT().PublishArtifact(gomock.Any(), gomock.Any()).DoAndReturn(publishing)
	tr := trainer.New(options(t), pipeline.New(pipeline.DefaultOptions()), artifacts, nil)

	path := filepath.Join(t.TempDir(), "loans.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ingest.WriteLabeled(f, fixture.Dataset(120, 5)))
	require.NoError(t, f.Close())

	res, err := tr.TrainFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 120, res.TrainRows+res.TestRows)

	_, err = tr.TrainFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	artifacts := mockstorage.NewMockArtifactStorage(ctrl)
	artifacts.EXPECT().PublishArtifact(gomock.Any(), gomock.Any()).DoAndReturn(publishing)
	tr := trainer.New(options(t), pipeline.New(pipeline.DefaultOptions()), artifacts, nil)

	res, err := tr.Train(context.Background(), fixture.Dataset(200, 6))
	require.NoError(t, err)

	holdout := fixture.Dataset(80, 7)
	scores, err := tr.Evaluate(context.Background(), *res.Artifact, holdout)
	require.NoError(t, err)
	require.Equal(t, len(holdout), scores.Support)
	require.Greater(t, scores.Accuracy, 0.5)

	_, err = tr.Evaluate(context.Background(), domain.Artifact{}, holdout)
	require.ErrorIs(t, err, serrors.ErrMissingFittedArtifact)
}

func TestEnqueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	jobs := mockstorage.NewMockJobStorage(ctrl)
	tr := trainer.New(options(t), pipeline.New(pipeline.DefaultOptions()), mockstorage.NewMockArtifactStorage(ctrl), jobs)

	var enqueued river.JobArgs
	jobs.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (bool, error) {
			enqueued = args

			return true, nil
		})
	added, err := tr.Enqueue(context.Background(), "data/loans.csv")
	require.NoError(t, err)
	require.True(t, added)

	args, ok := enqueued.(trainer.JobArgs)
	require.True(t, ok)
	require.Equal(t, "data/loans.csv", args.Dataset)
	require.Equal(t, 2, args.InsertOpts().MaxAttempts)
	require.True(t, args.InsertOpts().UniqueOpts.ByArgs)

	_, err = tr.Enqueue(context.Background(), "")
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	withoutQueue := trainer.New(options(t), pipeline.New(pipeline.DefaultOptions()), mockstorage.NewMockArtifactStorage(ctrl), nil)
	_, err = withoutQueue.Enqueue(context.Background(), "data/loans.csv")
	require.ErrorIs(t, err, serrors.ErrUnavailable)
}
