package evaluation_test

import (
	"loanapproval/internal/evaluation"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/metrics"
	"loanapproval/pkg/serrors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	yTrue := []domain.Label{1, 1, 1, 0, 0, 0, 0, 1}
	yPred := []domain.Label{1, 1, 0, 0, 0, 1, 0, 1}

	m, err := evaluation.Evaluate(yTrue, yPred)
	require.NoError(t, err)

	require.Equal(t, domain.ConfusionMatrix{{3, 1}, {1, 3}}, m.Confusion)
	require.Equal(t, 8, m.Support)
	require.InDelta(t, 0.75, m.Accuracy, 1e-12)
	require.InDelta(t, 0.75, m.Precision, 1e-12)
	require.InDelta(t, 0.75, m.Recall, 1e-12)
	require.InDelta(t, 0.75, m.F1, 1e-12)
}

func TestEvaluateWithoutPositivePredictions(t *testing.T) {
	m, err := evaluation.Evaluate([]domain.Label{1, 0}, []domain.Label{0, 0})
	require.NoError(t, err)
	require.Zero(t, m.Precision)
	require.Zero(t, m.Recall)
	require.Zero(t, m.F1)
	require.InDelta(t, 0.5, m.Accuracy, 1e-12)
}

func TestEvaluateErrors(t *testing.T) {
	_, err := evaluation.Evaluate(nil, nil)
	require.ErrorIs(t, err, serrors.ErrInsufficientData)

	_, err = evaluation.Evaluate([]domain.Label{1}, []domain.Label{1, 0})
	require.ErrorIs(t, err, serrors.ErrInsufficientData)
}

func TestReport(t *testing.T) {
	m, err := evaluation.Evaluate([]domain.Label{1, 0, 0}, []domain.Label{1, 0, 1})
	require.NoError(t, err)

	report := evaluation.Report(m)
	require.Contains(t, report, "precision")
	require.Contains(t, report, "Approved")
	require.Contains(t, report, "Rejected")
	require.Contains(t, report, "confusion matrix")
}

func TestPublish(t *testing.T) {
	evaluation.Publish(domain.EvaluationMetrics{Accuracy: 0.9, F1: 0.8})

	require.InDelta(t, 0.9, gaugeValue(t, metrics.Evaluation.WithLabelValues("accuracy")), 1e-12)
	require.InDelta(t, 0.8, gaugeValue(t, metrics.Evaluation.WithLabelValues("f1")), 1e-12)
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()

	var m dto.Metric
	require.NoError(t, g.Write(&m))

	return m.GetGauge().GetValue()
}
