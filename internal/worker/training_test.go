package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mockserving "loanapproval/internal/serving/mock"
	"loanapproval/internal/trainer"
	mocktrainer "loanapproval/internal/trainer/mock"
	"loanapproval/internal/worker"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func makeJob(id int64, dataset string) *river.Job[trainer.JobArgs] {
	return &river.Job[trainer.JobArgs]{
		JobRow: &rivertype.JobRow{ID: id},
		Args:   trainer.JobArgs{Dataset: dataset},
	}
}

func published() *trainer.Result {
	return &trainer.Result{Artifact: &domain.Artifact{ID: domain.ArtifactID(uuid.New())}}
}

func TestTrainingWorker_Work_SuccessReloadsPredictor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tr := mocktrainer.NewMockTrainer(ctrl)
	predictor := mockserving.NewMockPredictor(ctrl)
	w := worker.NewTrainingWorker(tr, predictor)

	gomock.InOrder(
		tr.EXPECT().TrainFile(gomock.Any(), "data/loans.csv").Return(published(), nil),
		predictor.EXPECT().Reload(gomock.Any()).Return(true, nil),
	)

	require.NoError(t, w.Work(context.Background(), makeJob(1, "data/loans.csv")))
}

func TestTrainingWorker_Work_WithoutPredictor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tr := mocktrainer.NewMockTrainer(ctrl)
	w := worker.NewTrainingWorker(tr, nil)
	tr.EXPECT().TrainFile(gomock.Any(), "a.csv").Return(published(), nil)

	require.NoError(t, w.Work(context.Background(), makeJob(2, "a.csv")))
}

func TestTrainingWorker_Work_ReloadFailureIsNotAJobFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tr := mocktrainer.NewMockTrainer(ctrl)
	predictor := mockserving.NewMockPredictor(ctrl)
	w := worker.NewTrainingWorker(tr, predictor)

	tr.EXPECT().TrainFile(gomock.Any(), "a.csv").Return(published(), nil)
	predictor.EXPECT().Reload(gomock.Any()).Return(false, errors.New("storage down"))

	require.NoError(t, w.Work(context.Background(), makeJob(3, "a.csv")))
}

func TestTrainingWorker_Work_UnusableDatasetCancels(t *testing.T) {
	for name, kind := range map[string]serrors.Kind{
		"schema violation":  serrors.ErrSchemaViolation,
		"insufficient data": serrors.ErrInsufficientData,
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			tr := mocktrainer.NewMockTrainer(ctrl)
			w := worker.NewTrainingWorker(tr, mockserving.NewMockPredictor(ctrl))
			tr.EXPECT().TrainFile(gomock.Any(), "bad.csv").Return(nil, serrors.With(kind, "bad dataset"))

			err := w.Work(context.Background(), makeJob(4, "bad.csv"))
			require.Error(t, err)
			var cancelErr *river.JobCancelError
			require.ErrorAs(t, err, &cancelErr)
		})
	}
}

func TestTrainingWorker_Work_OtherErrorsRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tr := mocktrainer.NewMockTrainer(ctrl)
	w := worker.NewTrainingWorker(tr, mockserving.NewMockPredictor(ctrl))

	storeErr := errors.New("disk full")
	tr.EXPECT().TrainFile(gomock.Any(), "a.csv").Return(nil, storeErr)

	err := w.Work(context.Background(), makeJob(5, "a.csv"))
	require.ErrorIs(t, err, storeErr)
	var cancelErr *river.JobCancelError
	require.False(t, errors.As(err, &cancelErr))
}
