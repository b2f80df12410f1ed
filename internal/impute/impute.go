// Package impute fits missing-value statistics on the training split and fills
// missing values of derived records from those frozen statistics.
package impute

import (
	"context"
	"loanapproval/internal/features"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
	"slices"

	"go.uber.org/zap"
)

// Stats holds the imputation statistics fitted on the training split. The
// income and work experience medians are computed over non-fraud records only;
// fraud records get a zero income instead.
type Stats struct {
	MonthlyIncomeMedian      float64 `json:"monthly_income_median"`
	WorkExperienceMedian     float64 `json:"work_experience_median"`
	SavingsBalanceMedian     float64 `json:"savings_balance_median"`
	AvgMonthlyExpensesMedian float64 `json:"avg_monthly_expenses_median"`
	CreditScoreMedian        float64 `json:"credit_score_median"`
	UrbanRuralMode           float64 `json:"urban_rural_mode"`
	FamilyDependentsMode     float64 `json:"family_dependents_mode"`
	EducationLevelMode       float64 `json:"education_level_mode"`
}

// fill returns the statistic used for a missing column of a non-fraud record.
func (s Stats) fill(c features.Column) (float64, bool) {
	switch c { //nolint: exhaustive
	case features.ColMonthlyIncome:
		return s.MonthlyIncomeMedian, true
	case features.ColWorkExperience:
		return s.WorkExperienceMedian, true
	case features.ColSavingsBalance:
		return s.SavingsBalanceMedian, true
	case features.ColAvgMonthlyExpenses:
		return s.AvgMonthlyExpensesMedian, true
	case features.ColCreditScore:
		return s.CreditScoreMedian, true
	case features.ColUrbanRural:
		return s.UrbanRuralMode, true
	case features.ColFamilyDependents:
		return s.FamilyDependentsMode, true
	case features.ColEducationLevel:
		return s.EducationLevelMode, true
	default:
		return 0, false
	}
}

// Imputed is a derived record without missing values.
type Imputed struct {
	rec features.Derived
}

// Value returns the value of a base column.
func (r Imputed) Value(c features.Column) float64 { return r.rec.Values[c] }

// Record returns the underlying derived record.
func (r Imputed) Record() features.Derived { return r.rec }

// Fit computes imputation statistics from training records. Credit score
// statistics include the first-time applicant sentinel.
func Fit(ctx context.Context, train []features.Derived) (Stats, error) {
	ctx = logger.Named(ctx, "impute")

	var nonFraud []features.Derived
	for _, d := range train {
		if !d.FraudFlag {
			nonFraud = append(nonFraud, d)
		}
	}

	var (
		s    Stats
		errs []error
	)
	med := func(records []features.Derived, c features.Column, dst *float64) {
		v, err := Median(present(records, c))
		if err != nil {
			errs = append(errs, serrors.Wrap(serrors.ErrInsufficientData, err, "column %q", features.ColumnName(c)))
		}
		*dst = v
	}
	mode := func(c features.Column, dst *float64) {
		v, err := Mode(present(train, c))
		if err != nil {
			errs = append(errs, serrors.Wrap(serrors.ErrInsufficientData, err, "column %q", features.ColumnName(c)))
		}
		*dst = v
	}

	med(nonFraud, features.ColMonthlyIncome, &s.MonthlyIncomeMedian)
	med(nonFraud, features.ColWorkExperience, &s.WorkExperienceMedian)
	med(train, features.ColSavingsBalance, &s.SavingsBalanceMedian)
	med(train, features.ColAvgMonthlyExpenses, &s.AvgMonthlyExpensesMedian)
	med(train, features.ColCreditScore, &s.CreditScoreMedian)
	mode(features.ColUrbanRural, &s.UrbanRuralMode)
	mode(features.ColFamilyDependents, &s.FamilyDependentsMode)
	mode(features.ColEducationLevel, &s.EducationLevelMode)

	if len(errs) > 0 {
		return Stats{}, errs[0]
	}

	logger.Debug(ctx, "imputation statistics fitted",
		zap.Int("records", len(train)), zap.Int("fraud", len(train)-len(nonFraud)), zap.Any("stats", s))

	return s, nil
}

// Apply fills every missing value of d from s. A zero work experience of a
// non-fraud record is replaced by the non-fraud median as well; the first-time
// applicant decision has already been taken on the raw value. It depends only
// on d and s.
func Apply(d features.Derived, s Stats) (Imputed, error) {
	if d.FraudFlag {
		d = d.With(features.ColMonthlyIncome, 0)
	} else if v, ok := d.Value(features.ColWorkExperience); ok && v == 0 {
		d = d.With(features.ColWorkExperience, s.WorkExperienceMedian)
	}

	for c := range features.NumColumns {
		if !d.Missing[c] {
			continue
		}
		v, ok := s.fill(c)
		if !ok {
			return Imputed{}, serrors.Field(serrors.ErrSchemaViolation, features.ColumnName(c),
				"required field %q is missing", features.ColumnName(c))
		}
		d = d.With(c, v)
	}

	return Imputed{rec: d}, nil
}

func present(records []features.Derived, c features.Column) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Value(c); ok {
			out = append(out, v)
		}
	}

	return out
}

// Median returns the middle value of x, averaging the two middle values when
// len(x) is even.
func Median(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, serrors.With(serrors.ErrInsufficientData, "median of no values")
	}

	sorted := slices.Clone(x)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}

	return (sorted[mid-1] + sorted[mid]) / 2, nil
}

// Mode returns the most frequent value of x. Ties resolve to the smallest value.
func Mode(x []float64) (float64, error) {
	if len(x) == 0 {
		return 0, serrors.With(serrors.ErrInsufficientData, "mode of no values")
	}

	counts := make(map[float64]int, len(x))
	for _, v := range x {
		counts[v]++
	}

	best, bestCount := 0.0, 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}

	return best, nil
}
