package pipeline_test

import (
	"context"
	"encoding/json"
	"loanapproval/internal/features"
	"loanapproval/internal/fixture"
	"loanapproval/internal/pipeline"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func prepare(t *testing.T) *pipeline.TrainingData {
	t.Helper()

	data, err := pipeline.New(pipeline.DefaultOptions()).PrepareTrainingData(context.Background(), fixture.Dataset(300, 1))
	require.NoError(t, err)

	return data
}

func TestPrepareTrainingData(t *testing.T) {
	data := prepare(t)
	train, test := data.Split.Train(), data.Split.Test()

	require.Len(t, data.XTest.Rows, len(test))
	require.Len(t, data.YTest, len(test))
	require.Len(t, data.XTrain.Rows, len(data.YTrain))
	require.Greater(t, len(data.XTrain.Rows), len(train))

	approved := 0
	for _, l := range data.YTrain {
		if l == domain.LabelApproved {
			approved++
		}
	}
	require.Equal(t, len(data.YTrain)-approved, approved)

	for _, row := range append(data.XTrain.Rows, data.XTest.Rows...) {
		require.Len(t, row, len(data.State.Columns()))
		for _, v := range row {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestFraudLabelsForcedOnTrainingPath(t *testing.T) {
	data := prepare(t)
	train := data.Split.Train()

	fraud := 0
	for i, r := range train {
		rec := r.Record
		if rec.WorkExperience != nil && *rec.WorkExperience == 0 && rec.MonthlyIncome == nil {
			fraud++
			require.Equal(t, domain.LabelRejected, data.YTrain[i])
			income, ok := data.XTrain.Row(i).Get(features.FieldMonthlyIncome)
			require.True(t, ok)
			require.InDelta(t, 0.0, income, 0)
		}
	}
	require.Positive(t, fraud)
}

func TestColumnOrder(t *testing.T) {
	data := prepare(t)
	cols, err := pipeline.Columns(data.State)
	require.NoError(t, err)

	require.Equal(t, features.BaseColumns(), cols[:features.NumColumns])
	require.Equal(t, features.AvgPlatformRating, cols[len(cols)-1])
	for _, c := range cols[features.NumColumns : len(cols)-1] {
		require.True(t, strings.HasPrefix(c, features.ReasonColumnPrefix), c)
	}
	require.NotContains(t, cols, features.ReasonColumnPrefix+string(domain.ReasonBusinessExpansion))

	_, err = pipeline.Columns(nil)
	require.ErrorIs(t, err, serrors.ErrMissingFittedArtifact)
}

func TestSchemaParity(t *testing.T) {
	data := prepare(t)

	inf, err := pipeline.New(pipeline.DefaultOptions()).
		PrepareInferenceRecord(context.Background(), data.Split.Test()[0].Record, data.State)
	require.NoError(t, err)
	require.Equal(t, data.XTest.Columns, inf.Vector.Columns)
	require.Equal(t, data.XTrain.Columns, inf.Vector.Columns)
	require.Equal(t, data.XTest.Rows[0], inf.Vector.Values)
}

func TestBatchAndSingleRecordAreIdentical(t *testing.T) {
	data := prepare(t)
	p := pipeline.New(pipeline.DefaultOptions())
	records := fixture.Dataset(20, 99)

	eval, err := p.PrepareEvalData(context.Background(), records, data.State)
	require.NoError(t, err)
	require.Len(t, eval.Y, len(records))

	for i, r := range records {
		if r.Record.WorkExperience != nil && *r.Record.WorkExperience == 0 && r.Record.MonthlyIncome == nil {
			// label forcing only happens on labeled paths
			require.Equal(t, domain.LabelRejected, eval.Y[i])
		}

		inf, err := p.PrepareInferenceRecord(context.Background(), r.Record, data.State)
		require.NoError(t, err)
		require.Equal(t, eval.X.Rows[i], inf.Vector.Values)
	}
}

func TestInferenceIsDeterministic(t *testing.T) {
	data := prepare(t)
	p := pipeline.New(pipeline.DefaultOptions())
	rec := fixture.Record()

	first, err := p.PrepareInferenceRecord(context.Background(), rec, data.State)
	require.NoError(t, err)
	second, err := p.PrepareInferenceRecord(context.Background(), rec, data.State)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestInferenceExampleScenario(t *testing.T) {
	data := prepare(t)

	rec := fixture.Record()
	rec.WorkExperience = domain.Ptr(0.0)
	rec.MonthlyIncome = nil
	rec.ExistingLoans = domain.Ptr(0.0)
	rec.CreditScore = domain.Ptr(820.0)
	rec.ReasonForLoan = domain.Ptr(domain.ReasonEducation)
	rec.PlatformRatings = domain.Ptr("Uber:4.5; Ola:3.5")

	inf, err := pipeline.New(pipeline.DefaultOptions()).PrepareInferenceRecord(context.Background(), rec, data.State)
	require.NoError(t, err)
	require.True(t, inf.FraudFlag)
	require.True(t, inf.FirstTimeApplicant)
	require.Empty(t, inf.Diagnostics)

	v := inf.Vector
	income, _ := v.Get(features.FieldMonthlyIncome)
	require.InDelta(t, 0.0, income, 0)

	score, _ := v.Get(features.FieldCreditScore)
	require.InDelta(t, data.State.Power().Transform(features.CreditHistorySentinel), score, 1e-12)

	rating, _ := v.Get(features.AvgPlatformRating)
	require.InDelta(t, 4.0, rating, 1e-12)

	for _, c := range v.Columns {
		if !strings.HasPrefix(c, features.ReasonColumnPrefix) {
			continue
		}
		got, _ := v.Get(c)
		want := 0.0
		if c == features.ReasonColumnPrefix+string(domain.ReasonEducation) {
			want = 1
		}
		require.InDelta(t, want, got, 0, c)
	}
}

func TestVocabularyClosure(t *testing.T) {
	data := prepare(t)

	rec := fixture.Record()
	rec.ReasonForLoan = domain.Ptr(domain.ReasonVehiclePurchase)

	inf, err := pipeline.New(pipeline.DefaultOptions()).PrepareInferenceRecord(context.Background(), rec, data.State)
	require.NoError(t, err)
	require.Equal(t, data.State.Columns(), inf.Vector.Columns)
	require.Len(t, inf.Diagnostics, 1)
	require.Equal(t, serrors.ErrUnseenCategory.Error(), inf.Diagnostics[0].Kind)

	for _, c := range inf.Vector.Columns {
		if strings.HasPrefix(c, features.ReasonColumnPrefix) {
			got, _ := inf.Vector.Get(c)
			require.InDelta(t, 0.0, got, 0, c)
		}
	}
}

func TestReasonMissingFromTrainingEncodesLikeBaseline(t *testing.T) {
	dataset := fixture.Dataset(300, 1)
	for i := range dataset {
		if *dataset[i].Record.ReasonForLoan == domain.ReasonEducation {
			dataset[i].Record.ReasonForLoan = domain.Ptr(domain.ReasonOther)
		}
	}
	p := pipeline.New(pipeline.DefaultOptions())
	data, err := p.PrepareTrainingData(context.Background(), dataset)
	require.NoError(t, err)

	vocab := data.State.Vocabulary()
	require.NotContains(t, vocab.Categories(), domain.ReasonEducation)
	require.NotContains(t, vocab.Columns(), features.ReasonColumnPrefix+string(domain.ReasonEducation))
	baseline := vocab.Categories()[0]

	reasonColumns := func(reason domain.LoanReason) ([]float64, []domain.Diagnostic) {
		rec := fixture.Record()
		rec.ReasonForLoan = domain.Ptr(reason)
		inf, err := p.PrepareInferenceRecord(context.Background(), rec, data.State)
		require.NoError(t, err)
		require.Equal(t, data.State.Columns(), inf.Vector.Columns)

		var row []float64
		for _, c := range inf.Vector.Columns {
			if strings.HasPrefix(c, features.ReasonColumnPrefix) {
				v, _ := inf.Vector.Get(c)
				row = append(row, v)
			}
		}

		return row, inf.Diagnostics
	}

	baseRow, baseDiag := reasonColumns(baseline)
	require.Empty(t, baseDiag)
	missingRow, missingDiag := reasonColumns(domain.ReasonEducation)
	require.Len(t, missingDiag, 1)
	require.Equal(t, serrors.ErrUnseenCategory.Error(), missingDiag[0].Kind)

	// the unseen reason is indistinguishable from the baseline in the vector
	require.Equal(t, baseRow, missingRow)
	require.Len(t, missingRow, len(vocab.Categories())-1)
	for _, v := range missingRow {
		require.InDelta(t, 0.0, v, 0)
	}
}

func TestMissingState(t *testing.T) {
	p := pipeline.New(pipeline.DefaultOptions())

	_, err := p.PrepareInferenceRecord(context.Background(), fixture.Record(), nil)
	require.ErrorIs(t, err, serrors.ErrMissingFittedArtifact)

	_, err = p.PrepareEvalData(context.Background(), fixture.Dataset(5, 1), nil)
	require.ErrorIs(t, err, serrors.ErrMissingFittedArtifact)
}

func TestSchemaViolationAbortsInference(t *testing.T) {
	data := prepare(t)
	rec := fixture.Record()
	rec.EducationLevel = domain.Ptr(domain.EducationLevel("Doctorate"))

	inf, err := pipeline.New(pipeline.DefaultOptions()).PrepareInferenceRecord(context.Background(), rec, data.State)
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)
	require.Nil(t, inf)
}

func TestStateRoundTrip(t *testing.T) {
	data := prepare(t)

	raw, err := json.Marshal(data.State)
	require.NoError(t, err)
	loaded, err := pipeline.LoadState(raw)
	require.NoError(t, err)

	require.Equal(t, data.State.Columns(), loaded.Columns())
	require.Equal(t, data.State.Imputation(), loaded.Imputation())
	require.Equal(t, data.State.Power(), loaded.Power())

	p := pipeline.New(pipeline.DefaultOptions())
	a, err := p.PrepareInferenceRecord(context.Background(), fixture.Record(), data.State)
	require.NoError(t, err)
	b, err := p.PrepareInferenceRecord(context.Background(), fixture.Record(), loaded)
	require.NoError(t, err)
	require.Equal(t, a.Vector, b.Vector)
}

func TestLoadStateRejectsIncompleteArtifacts(t *testing.T) {
	data := prepare(t)
	raw, err := json.Marshal(data.State)
	require.NoError(t, err)

	drop := func(key string) []byte {
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		delete(m, key)
		out, err := json.Marshal(m)
		require.NoError(t, err)

		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not json", data: []byte("{")},
		{name: "no power transform", data: drop("power_transform")},
		{name: "no imputation", data: drop("imputation")},
		{name: "no vocabulary", data: drop("loan_reason_vocabulary")},
		{name: "no columns", data: drop("columns")},
		{name: "unknown version", data: drop("version")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.LoadState(tt.data)
			require.ErrorIs(t, err, serrors.ErrMissingFittedArtifact)
		})
	}
}

func TestPrepareTrainingDataErrors(t *testing.T) {
	p := pipeline.New(pipeline.DefaultOptions())

	_, err := p.PrepareTrainingData(context.Background(), nil)
	require.ErrorIs(t, err, serrors.ErrInsufficientData)

	records := fixture.Dataset(50, 1)
	records[3].Record.Age = nil
	_, err = p.PrepareTrainingData(context.Background(), records)
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)
	require.False(t, serrors.IsRecoverable(err))

	unknownLabel := fixture.Dataset(50, 2)
	unknownLabel[7].Label = 2
	_, err = p.PrepareTrainingData(context.Background(), unknownLabel)
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)
}

func TestPrepareEvalDataRejectsUnknownLabel(t *testing.T) {
	p := pipeline.New(pipeline.DefaultOptions())
	data, err := p.PrepareTrainingData(context.Background(), fixture.Dataset(80, 3))
	require.NoError(t, err)

	records := fixture.Dataset(10, 4)
	records[0].Label = -1
	_, err = p.PrepareEvalData(context.Background(), records, data.State)
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)
}
