// Package pipeline sequences the feature transformation: derivation,
// imputation, normalization and, for training only, oversampling. It owns the
// fit/apply contract: statistics are fitted once on the training split, frozen
// in a State and replayed unchanged for evaluation and inference.
package pipeline

import (
	"context"
	"fmt"
	"loanapproval/internal/balance"
	"loanapproval/internal/config"
	"loanapproval/internal/features"
	"loanapproval/internal/impute"
	"loanapproval/internal/ingest"
	"loanapproval/internal/normalize"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/metrics"
	"loanapproval/pkg/serrors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configure the training path of the pipeline.
type Options struct {
	// TestRatio is the share of each class held out for evaluation.
	TestRatio float64
	// SplitSeed makes the stratified split reproducible.
	SplitSeed uint64
	// Balance configures minority oversampling of the training split.
	Balance balance.Options
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		TestRatio: cfg.Pipeline.TestRatio,
		SplitSeed: cfg.Pipeline.Seed,
		Balance: balance.Options{
			K:     cfg.Pipeline.SmoteNeighbours,
			Ratio: cfg.Pipeline.BalanceRatio,
			Seed:  cfg.Pipeline.Seed,
		},
	}
}

// DefaultOptions returns a 0.2 test ratio, seed 42 and full balancing with k=5.
func DefaultOptions() Options {
	return Options{TestRatio: 0.2, SplitSeed: 42, Balance: balance.DefaultOptions()}
}

// TrainingData is the output of the training path.
type TrainingData struct {
	// State is the transform fitted on the training split.
	State *State
	// Split is the stratified partition the matrices were built from.
	Split ingest.DatasetSplit

	// XTrain and YTrain are the oversampled training matrix and labels.
	XTrain domain.FeatureMatrix
	YTrain []domain.Label
	// XTest and YTest are the held-out matrix and labels, never oversampled.
	XTest domain.FeatureMatrix
	YTest []domain.Label

	Diagnostics []domain.Diagnostic
}

// EvalData is a labeled matrix transformed with a frozen state.
type EvalData struct {
	X           domain.FeatureMatrix
	Y           []domain.Label
	Diagnostics []domain.Diagnostic
}

// Inference is a single transformed record.
type Inference struct {
	Vector             domain.FeatureVector
	FraudFlag          bool
	FirstTimeApplicant bool
	Diagnostics        []domain.Diagnostic
}

var tracer = otel.Tracer("loanapproval/internal/pipeline") //nolint: gochecknoglobals

// pipeline is the concrete implementation of the Pipeline interface.
type pipeline struct {
	options Options
}

// New creates a Pipeline.
func New(options Options) Pipeline {
	return &pipeline{options: options}
}

// Columns returns the feature column order of vectors produced with state.
func Columns(state *State) ([]string, error) {
	if state == nil {
		return nil, serrors.KindOnly(serrors.ErrMissingFittedArtifact)
	}

	return state.Columns(), nil
}

func (p *pipeline) PrepareTrainingData(ctx context.Context, records []domain.LabeledRecord) (_ *TrainingData, err error) {
	ctx = logger.Named(ctx, "pipeline")
	ctx, done := stage(ctx, "prepare_training_data", attribute.Int("records", len(records)))
	defer func() {
		done(err)
		rejected(metrics.PathTraining, err)
	}()

	split, err := ingest.Split(records, p.options.TestRatio, p.options.SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("could not split records: %w", err)
	}

	out := &TrainingData{Split: split}

	trainDerived, diags, err := deriveAll(ctx, split.Train(), metrics.PathTraining)
	if err != nil {
		return nil, fmt.Errorf("could not derive training features: %w", err)
	}
	out.Diagnostics = append(out.Diagnostics, diags...)

	out.State, err = fit(ctx, trainDerived)
	if err != nil {
		return nil, fmt.Errorf("could not fit transform state: %w", err)
	}

	x, y, diags, err := transformAll(ctx, out.State, trainDerived, metrics.PathTraining)
	if err != nil {
		return nil, fmt.Errorf("could not transform training split: %w", err)
	}
	out.Diagnostics = append(out.Diagnostics, diags...)

	balanceCtx, balanceDone := stage(ctx, "balance")
	out.XTrain.Columns = out.State.Columns()
	out.XTrain.Rows, out.YTrain, err = balance.SMOTE(balanceCtx, x, y, p.options.Balance)
	balanceDone(err)
	if err != nil {
		return nil, fmt.Errorf("could not balance training split: %w", err)
	}

	testDerived, diags, err := deriveAll(ctx, split.Test(), metrics.PathTraining)
	if err != nil {
		return nil, fmt.Errorf("could not derive test features: %w", err)
	}
	out.Diagnostics = append(out.Diagnostics, diags...)

	out.XTest.Columns = out.State.Columns()
	out.XTest.Rows, out.YTest, diags, err = transformAll(ctx, out.State, testDerived, metrics.PathTraining)
	if err != nil {
		return nil, fmt.Errorf("could not transform test split: %w", err)
	}
	out.Diagnostics = append(out.Diagnostics, diags...)

	logger.Info(ctx, "training data prepared",
		zap.Int("train", len(trainDerived)),
		zap.Int("train_balanced", out.XTrain.Len()),
		zap.Int("test", out.XTest.Len()),
		zap.Int("columns", len(out.XTrain.Columns)),
		zap.Int("diagnostics", len(out.Diagnostics)))

	return out, nil
}

func (p *pipeline) PrepareEvalData(ctx context.Context, records []domain.LabeledRecord, state *State) (_ *EvalData, err error) {
	ctx = logger.Named(ctx, "pipeline")
	ctx, done := stage(ctx, "prepare_eval_data", attribute.Int("records", len(records)))
	defer func() {
		done(err)
		rejected(metrics.PathEvaluation, err)
	}()

	if state == nil {
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "evaluation requires a fitted transform state")
	}

	derived, diags, err := deriveAll(ctx, records, metrics.PathEvaluation)
	if err != nil {
		return nil, fmt.Errorf("could not derive evaluation features: %w", err)
	}

	out := &EvalData{X: domain.FeatureMatrix{Columns: state.Columns()}, Diagnostics: diags}
	out.X.Rows, out.Y, diags, err = transformAll(ctx, state, derived, metrics.PathEvaluation)
	if err != nil {
		return nil, fmt.Errorf("could not transform evaluation records: %w", err)
	}
	out.Diagnostics = append(out.Diagnostics, diags...)

	return out, nil
}

func (p *pipeline) PrepareInferenceRecord(ctx context.Context, record domain.RawRecord, state *State) (_ *Inference, err error) {
	defer func() { rejected(metrics.PathInference, err) }()

	if state == nil {
		return nil, serrors.With(serrors.ErrMissingFittedArtifact, "inference requires a fitted transform state")
	}

	d, diags, err := features.Extract(ctx, record, nil)
	if err != nil {
		return nil, fmt.Errorf("could not derive features: %w", err)
	}
	row, more, err := state.apply(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("could not transform record: %w", err)
	}
	diags = append(diags, more...)
	countRecord(metrics.PathInference, d, diags)

	return &Inference{
		Vector:             domain.FeatureVector{Columns: state.Columns(), Values: row},
		FraudFlag:          d.FraudFlag,
		FirstTimeApplicant: d.FirstTimeApplicant,
		Diagnostics:        diags,
	}, nil
}

// fit estimates the transform state from derived training records.
func fit(ctx context.Context, train []features.Derived) (_ *State, err error) {
	ctx, done := stage(ctx, "fit")
	defer func() { done(err) }()

	stats, err := impute.Fit(ctx, train)
	if err != nil {
		return nil, fmt.Errorf("could not fit imputation: %w", err)
	}

	powerCol := features.PowerColumn()
	scores := make([]float64, len(train))
	for i, d := range train {
		imputed, err := impute.Apply(d, stats)
		if err != nil {
			return nil, fmt.Errorf("could not impute training record: %w", err)
		}
		scores[i] = imputed.Value(powerCol)
	}
	power, err := normalize.FitPower(scores)
	if err != nil {
		return nil, fmt.Errorf("could not fit power transform: %w", err)
	}

	vocab := features.FitVocabulary(train)
	logger.Info(ctx, "transform state fitted",
		zap.Float64("lambda", power.Lambda),
		zap.Any("vocabulary", vocab.Categories()))

	return newState(stats, power, vocab), nil
}

// apply runs imputation, normalization and encoding of one derived record.
// It reads nothing but d and the frozen state.
func (s *State) apply(ctx context.Context, d features.Derived) ([]float64, []domain.Diagnostic, error) {
	imputed, err := impute.Apply(d, s.imputation)
	if err != nil {
		return nil, nil, err
	}
	base, err := normalize.Apply(imputed, &s.power)
	if err != nil {
		return nil, nil, err
	}

	var diags []domain.Diagnostic
	oneHot, err := s.vocabulary.Encode(d.Reason)
	if err != nil {
		if !serrors.IsRecoverable(err) {
			return nil, nil, err
		}
		logger.Warn(ctx, "unseen loan reason encoded as baseline", zap.String("value", string(d.Reason)))
		diags = append(diags, features.Diagnose(err, string(d.Reason)))
	}

	row := make([]float64, 0, len(s.columns))
	row = append(row, base[:]...)
	row = append(row, oneHot...)
	row = append(row, d.AvgPlatformRating)

	return row, diags, nil
}

func deriveAll(ctx context.Context, records []domain.LabeledRecord, path string) (_ []features.Derived, _ []domain.Diagnostic, err error) {
	ctx, done := stage(ctx, "derive", attribute.String("path", path))
	defer func() { done(err) }()

	out := make([]features.Derived, 0, len(records))
	var diags []domain.Diagnostic
	for i := range records {
		d, more, err := features.Extract(ctx, records[i].Record, &records[i].Label)
		if err != nil {
			return nil, nil, fmt.Errorf("record %s: %w", recordRef(i, records[i].Record), err)
		}
		out = append(out, d)
		diags = append(diags, more...)
	}

	return out, diags, nil
}

func transformAll(ctx context.Context, state *State, derived []features.Derived, path string) (_ [][]float64, _ []domain.Label, _ []domain.Diagnostic, err error) {
	ctx, done := stage(ctx, "transform", attribute.String("path", path))
	defer func() { done(err) }()

	rows := make([][]float64, 0, len(derived))
	labels := make([]domain.Label, 0, len(derived))
	var diags []domain.Diagnostic
	for i, d := range derived {
		row, more, err := state.apply(ctx, d)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
		labels = append(labels, d.Label)
		diags = append(diags, more...)
		countRecord(path, d, more)
	}

	return rows, labels, diags, nil
}

func recordRef(i int, r domain.RawRecord) string {
	if r.ApplicantID != nil {
		return fmt.Sprintf("%d (%s)", i, *r.ApplicantID)
	}

	return fmt.Sprint(i)
}

func countRecord(path string, d features.Derived, diags []domain.Diagnostic) {
	metrics.RecordsTransformed.WithLabelValues(path).Inc()
	if d.FraudFlag {
		metrics.FraudFlagged.WithLabelValues(path).Inc()
	}
	for _, diag := range diags {
		metrics.Diagnostics.WithLabelValues(diag.Kind, diag.Field).Inc()
	}
}

func rejected(path string, err error) {
	if err == nil {
		return
	}
	kind := "UNKNOWN"
	if k := serrors.KindOf(err); k != nil {
		kind = k.Error()
	}
	metrics.Rejections.WithLabelValues(path, kind).Inc()
}

// stage opens a tracing span for a pipeline stage. The returned function ends
// the span and records the stage duration.
func stage(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
