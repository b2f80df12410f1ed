// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loanapproval"

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// Path labels of RecordsTransformed.
const (
	PathTraining   = "training"
	PathEvaluation = "evaluation"
	PathInference  = "inference"
)

//nolint: gochecknoglobals
var (
	// RecordsTransformed counts records turned into feature vectors, by path.
	RecordsTransformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "records_transformed_total",
		Help:      "Records transformed into feature vectors.",
	}, []string{"path"})

	// Diagnostics counts recoverable problems replaced by a default value.
	Diagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "diagnostics_total",
		Help:      "Recoverable problems absorbed while transforming records.",
	}, []string{"kind", "field"})

	// Rejections counts records or batches aborted by a fatal error.
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "rejections_total",
		Help:      "Transform operations aborted by a fatal error.",
	}, []string{"path", "kind"})

	// FraudFlagged counts records routed through the fraud branch.
	FraudFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "fraud_flagged_total",
		Help:      "Records with zero work experience and missing income.",
	}, []string{"path"})

	// StageDuration observes the duration of pipeline stages.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages.",
		Buckets:   DefaultBuckets,
	}, []string{"stage"})

	// Evaluation exposes the metrics of the currently served model.
	Evaluation = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "evaluation",
		Help:      "Held-out evaluation metrics of the served model.",
	}, []string{"metric"})

	// ArtifactInfo is set to 1 for the artifact currently served.
	ArtifactInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "artifact_info",
		Help:      "Artifact currently loaded by the predictor.",
	}, []string{"artifact_id"})

	// Predictions counts served decisions.
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "predictions_total",
		Help:      "Served loan decisions.",
	}, []string{"decision"})

	// TrainingRuns counts training runs by outcome.
	TrainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trainer",
		Name:      "runs_total",
		Help:      "Training runs by outcome.",
	}, []string{"outcome"})
)
