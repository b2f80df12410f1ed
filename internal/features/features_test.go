package features_test

import (
	"context"
	"loanapproval/internal/features"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"maps"
	"testing"

	"github.com/stretchr/testify/require"
)

func validValues() map[string]string {
	return map[string]string{
		"applicant_id":                    "A-1",
		"age":                             "34",
		"education_level":                 "Graduate",
		"gig_platforms":                   "Uber, Ola",
		"num_platforms":                   "2",
		"work_experience":                 "5",
		"monthly_income":                  "42000",
		"seasonal_variation":              "0.2",
		"income_volatility":               "0.3",
		"savings_balance":                 "120000",
		"debt_to_income_ratio":            "0.4",
		"credit_score":                    "710",
		"existing_loans":                  "1",
		"loan_amount_requested":           "250000",
		"transaction_frequency":           "30",
		"avg_monthly_expenses":            "18000",
		"credit_card_utilization":         "0.35",
		"subscription_services":           "3",
		"financial_emergencies_last_year": "1",
		"inflation_rate":                  "5.5",
		"reason_for_loan":                 "Home Renovation",
		"platform_ratings":                "Uber:4.5; Ola:3.5",
		"customer_feedback_score":         "4.1",
		"work_consistency":                "0.8",
		"penalties":                       "0",
		"alternative_income_source":       "Yes",
		"loan_coapplicant":                "No",
		"location":                        "Pune",
		"urban_rural":                     "Urban",
		"avg_platform_tenure":             "24",
		"family_dependents":               "2",
		"cost_of_living_index":            "1.1",
	}
}

func with(values map[string]string, kv ...string) map[string]string {
	out := maps.Clone(values)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}

	return out
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantErr string
		check   func(t *testing.T, rec domain.RawRecord)
	}{
		{
			name:   "valid record",
			values: validValues(),
			check: func(t *testing.T, rec domain.RawRecord) {
				t.Helper()
				require.InDelta(t, 34.0, *rec.Age, 1e-12)
				require.Equal(t, domain.EducationGraduate, *rec.EducationLevel)
				require.Equal(t, domain.ReasonHomeRenovation, *rec.ReasonForLoan)
			},
		},
		{
			name:   "missing markers leave optional fields absent",
			values: with(validValues(), "monthly_income", "", "credit_score", "NaN", "urban_rural", "NA"),
			check: func(t *testing.T, rec domain.RawRecord) {
				t.Helper()
				require.Nil(t, rec.MonthlyIncome)
				require.Nil(t, rec.CreditScore)
				require.Nil(t, rec.UrbanRural)
			},
		},
		{
			name:    "unknown field with hint",
			values:  with(validValues(), "credit_scor", "700"),
			wantErr: `unknown field "credit_scor" (did you mean "credit_score"?)`,
		},
		{
			name:    "categorical outside domain",
			values:  with(validValues(), "education_level", "PhD"),
			wantErr: `field "education_level": value "PhD" outside domain`,
		},
		{
			name:    "categorical close to domain value is not coerced",
			values:  with(validValues(), "urban_rural", "urban"),
			wantErr: `(did you mean "Urban"?)`,
		},
		{
			name:    "required field missing",
			values:  with(validValues(), "age", ""),
			wantErr: `required field "age" is missing`,
		},
		{
			name:    "non numeric value",
			values:  with(validValues(), "penalties", "many"),
			wantErr: `field "penalties": "many" is not a finite number`,
		},
		{
			name:    "negative count",
			values:  with(validValues(), "existing_loans", "-1"),
			wantErr: `field "existing_loans"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := features.ParseRecord(tt.values)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.ErrorIs(t, err, serrors.ErrSchemaViolation)
				require.Contains(t, err.Error(), tt.wantErr)

				return
			}
			require.NoError(t, err)
			tt.check(t, rec)
		})
	}
}

func TestParseNullableRecord(t *testing.T) {
	values := make(map[string]*string)
	for k, v := range validValues() {
		values[k] = &v
	}
	values["savings_balance"] = nil

	rec, err := features.ParseNullableRecord(values)
	require.NoError(t, err)
	require.Nil(t, rec.SavingsBalance)
	require.NotNil(t, rec.CreditScore)
}

func TestValidateTypedRecord(t *testing.T) {
	rec, err := features.ParseRecord(validValues())
	require.NoError(t, err)
	require.NoError(t, features.Validate(rec))

	rec.ReasonForLoan = domain.Ptr(domain.LoanReason("Holiday"))
	err = features.Validate(rec)
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)

	var serr *serrors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, features.FieldReasonForLoan, serr.FieldName())
}

func TestCheckColumns(t *testing.T) {
	require.NoError(t, features.CheckColumns(append(features.FieldNames(), features.LabelField)))

	err := features.CheckColumns([]string{"age", "loan_aproved"})
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)
	require.Contains(t, err.Error(), `did you mean "loan_approved"?`)
}

func TestParseRatings(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		want        float64
		recoverable bool
	}{
		{name: "two platforms", in: "Uber:4.5; Ola:3.5", want: 4.0},
		{name: "no space after separator", in: "Uber:4;Swiggy:5", want: 4.5},
		{name: "malformed item skipped", in: "Uber:4.5; Ola; Zomato:x", want: 4.5, recoverable: true},
		{name: "empty string", in: "", want: 0, recoverable: true},
		{name: "garbage", in: "not ratings", want: 0, recoverable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := features.ParseRatings(tt.in)
			require.InDelta(t, tt.want, got, 1e-12)
			if !tt.recoverable {
				require.NoError(t, err)

				return
			}
			require.ErrorIs(t, err, serrors.ErrUnparseableAuxiliaryField)
			require.True(t, serrors.IsRecoverable(err))
		})
	}
}

func TestExtractFraudAndFirstTimeApplicant(t *testing.T) {
	rec, err := features.ParseRecord(with(validValues(),
		"work_experience", "0",
		"monthly_income", "",
		"existing_loans", "0",
		"credit_score", "780",
		"reason_for_loan", "Education",
	))
	require.NoError(t, err)

	label := domain.LabelApproved
	d, diags, err := features.Extract(context.Background(), rec, &label)
	require.NoError(t, err)
	require.Empty(t, diags)

	require.True(t, d.FraudFlag)
	require.True(t, d.FirstTimeApplicant)
	require.True(t, d.Labeled)
	require.Equal(t, domain.LabelRejected, d.Label)

	score, ok := d.Value(features.ColCreditScore)
	require.True(t, ok)
	require.InDelta(t, features.CreditHistorySentinel, score, 0)

	_, ok = d.Value(features.ColMonthlyIncome)
	require.False(t, ok)
	require.InDelta(t, 4.0, d.AvgPlatformRating, 1e-12)
	require.Equal(t, domain.ReasonEducation, d.Reason)
}

func TestExtractEncodesCategoricals(t *testing.T) {
	rec, err := features.ParseRecord(validValues())
	require.NoError(t, err)

	d, _, err := features.Extract(context.Background(), rec, nil)
	require.NoError(t, err)
	require.False(t, d.FraudFlag)
	require.False(t, d.FirstTimeApplicant)
	require.False(t, d.Labeled)

	for col, want := range map[features.Column]float64{
		features.ColEducationLevel:          1,
		features.ColUrbanRural:              1,
		features.ColAlternativeIncomeSource: 1,
		features.ColLoanCoapplicant:         0,
		features.ColCreditScore:             710,
	} {
		got, ok := d.Value(col)
		require.True(t, ok, features.ColumnName(col))
		require.InDelta(t, want, got, 0, features.ColumnName(col))
	}
}

func TestExtractRatingsDiagnostic(t *testing.T) {
	rec, err := features.ParseRecord(with(validValues(), "platform_ratings", "broken"))
	require.NoError(t, err)

	d, diags, err := features.Extract(context.Background(), rec, nil)
	require.NoError(t, err)
	require.Zero(t, d.AvgPlatformRating)
	require.Len(t, diags, 1)
	require.Equal(t, serrors.ErrUnparseableAuxiliaryField.Error(), diags[0].Kind)
	require.Equal(t, features.FieldPlatformRatings, diags[0].Field)
	require.Equal(t, "broken", diags[0].Value)
}

func TestExtractRejectsInvalidRecord(t *testing.T) {
	_, _, err := features.Extract(context.Background(), domain.RawRecord{}, nil)
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)
	require.False(t, serrors.IsRecoverable(err))
}

func TestExtractRejectsNonBinaryLabel(t *testing.T) {
	rec, err := features.ParseRecord(validValues())
	require.NoError(t, err)

	for _, label := range []domain.Label{2, -1} {
		_, _, err := features.Extract(context.Background(), rec, &label)
		require.ErrorIs(t, err, serrors.ErrSchemaViolation)

		var semantic *serrors.Error
		require.ErrorAs(t, err, &semantic)
		require.Equal(t, features.LabelField, semantic.FieldName())
	}
}

func TestVocabulary(t *testing.T) {
	records := []features.Derived{
		{Reason: domain.ReasonVehiclePurchase},
		{Reason: domain.ReasonEducation},
		{Reason: domain.ReasonDebtConsolidation},
		{Reason: domain.ReasonEducation},
	}
	vocab := features.FitVocabulary(records)

	require.Equal(t, []domain.LoanReason{
		domain.ReasonDebtConsolidation, domain.ReasonEducation, domain.ReasonVehiclePurchase,
	}, vocab.Categories())
	require.Equal(t, []string{"reason_for_loan_Education", "reason_for_loan_Vehicle Purchase"}, vocab.Columns())

	row, err := vocab.Encode(domain.ReasonEducation)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0}, row)

	row, err = vocab.Encode(domain.ReasonDebtConsolidation)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, row)

	row, err = vocab.Encode(domain.ReasonMedicalEmergency)
	require.ErrorIs(t, err, serrors.ErrUnseenCategory)
	require.True(t, serrors.IsRecoverable(err))
	require.Equal(t, []float64{0, 0}, row)
	require.Len(t, vocab.Columns(), len(row))
}

func TestNewVocabulary(t *testing.T) {
	vocab, err := features.NewVocabulary([]domain.LoanReason{domain.ReasonOther, domain.ReasonEducation})
	require.NoError(t, err)
	require.Equal(t, []string{"reason_for_loan_Other"}, vocab.Columns())

	_, err = features.NewVocabulary([]domain.LoanReason{"Holiday"})
	require.ErrorIs(t, err, serrors.ErrSchemaViolation)
}

func TestSchemaColumns(t *testing.T) {
	cols := features.BaseColumns()
	require.Len(t, cols, int(features.NumColumns))
	require.Equal(t, "age", cols[0])
	require.Equal(t, "cost_of_living_index", cols[len(cols)-1])
	require.Equal(t, features.ColCreditScore, features.PowerColumn())
	require.ElementsMatch(t, []features.Column{
		features.ColNumPlatforms, features.ColSavingsBalance, features.ColExistingLoans,
		features.ColLoanAmountRequested, features.ColPenalties,
	}, features.Log1pColumns())
}
