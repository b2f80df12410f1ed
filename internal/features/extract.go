package features

import (
	"context"
	"errors"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"

	"go.uber.org/zap"
)

// CreditHistorySentinel replaces the credit score of applicants without any
// work experience or existing loans. It means "no credit history", not "missing".
const CreditHistorySentinel = -1.0

// Derived is a validated record augmented with the derived features. Base
// columns are already numerically encoded; missing values are still marked and
// are filled later by imputation. Derived is a value type: every stage copies
// it instead of mutating a shared record.
type Derived struct {
	Values  [NumColumns]float64
	Missing [NumColumns]bool

	Reason            domain.LoanReason
	AvgPlatformRating float64

	// FraudFlag is set when work experience is zero and income is missing.
	FraudFlag bool
	// FirstTimeApplicant is set when work experience and existing loans are
	// both zero. Its credit score holds CreditHistorySentinel.
	FirstTimeApplicant bool

	// Label is meaningful only when Labeled is set.
	Label   domain.Label
	Labeled bool
}

// Value returns the value of a base column and whether it is present.
func (d Derived) Value(c Column) (float64, bool) {
	return d.Values[c], !d.Missing[c]
}

// With returns a copy of d with column c set to v and marked present.
func (d Derived) With(c Column, v float64) Derived {
	d.Values[c] = v
	d.Missing[c] = false

	return d
}

// Extract validates rec and computes its derived features. A non-nil label marks
// a training or evaluation record; a fraud-flagged record's label is forced to
// rejected. Recoverable problems are returned as diagnostics, fatal ones as error.
func Extract(ctx context.Context, rec domain.RawRecord, label *domain.Label) (Derived, []domain.Diagnostic, error) {
	if err := Validate(rec); err != nil {
		return Derived{}, nil, err
	}
	if label != nil && !label.Valid() {
		return Derived{}, nil, serrors.Field(serrors.ErrSchemaViolation, LabelField,
			"field %q: %d is not a binary label", LabelField, *label)
	}

	var (
		d     Derived
		diags []domain.Diagnostic
	)

	for _, f := range schema {
		if f.Column == noColumn {
			continue
		}
		v, ok := f.Number(&rec)
		d.Values[f.Column] = v
		d.Missing[f.Column] = !ok
	}
	d.Reason = *rec.ReasonForLoan

	workExp, hasWorkExp := d.Value(ColWorkExperience)
	_, hasIncome := d.Value(ColMonthlyIncome)
	loans, _ := d.Value(ColExistingLoans)

	d.FraudFlag = hasWorkExp && workExp == 0 && !hasIncome
	d.FirstTimeApplicant = hasWorkExp && workExp == 0 && loans == 0
	if d.FirstTimeApplicant {
		d = d.With(ColCreditScore, CreditHistorySentinel)
	}

	if label != nil {
		d.Label, d.Labeled = *label, true
		if d.FraudFlag {
			d.Label = domain.LabelRejected
		}
	}

	ratings := ""
	if rec.PlatformRatings != nil {
		ratings = *rec.PlatformRatings
	}
	avg, err := ParseRatings(ratings)
	if err != nil {
		if !serrors.IsRecoverable(err) {
			return Derived{}, nil, err
		}
		diag := Diagnose(err, ratings)
		logger.Warn(ctx, "platform ratings replaced by default",
			zap.String("field", diag.Field), zap.String("value", ratings), zap.Float64("average", avg))
		diags = append(diags, diag)
	}
	d.AvgPlatformRating = avg

	return d, diags, nil
}

// Diagnose converts a recoverable error into a diagnostic for value.
func Diagnose(err error, value string) domain.Diagnostic {
	diag := domain.Diagnostic{Value: value, Message: err.Error()}
	if k := serrors.KindOf(err); k != nil {
		diag.Kind = k.Error()
	}

	var serr *serrors.Error
	if errors.As(err, &serr) {
		diag.Field = serr.FieldName()
	}

	return diag
}
