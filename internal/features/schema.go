// Package features holds the feature schema of an applicant record and the
// derived-feature extractor that turns a validated raw record into the
// intermediate numeric representation consumed by imputation and normalization.
package features

import (
	"fmt"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"math"
	"strconv"
	"strings"
)

// Raw field names as they appear in CSV headers and inference payloads.
const (
	FieldApplicantID                  = "applicant_id"
	FieldAge                          = "age"
	FieldEducationLevel               = "education_level"
	FieldGigPlatforms                 = "gig_platforms"
	FieldNumPlatforms                 = "num_platforms"
	FieldWorkExperience               = "work_experience"
	FieldMonthlyIncome                = "monthly_income"
	FieldSeasonalVariation            = "seasonal_variation"
	FieldIncomeVolatility             = "income_volatility"
	FieldSavingsBalance               = "savings_balance"
	FieldDebtToIncomeRatio            = "debt_to_income_ratio"
	FieldCreditScore                  = "credit_score"
	FieldExistingLoans                = "existing_loans"
	FieldLoanAmountRequested          = "loan_amount_requested"
	FieldTransactionFrequency         = "transaction_frequency"
	FieldAvgMonthlyExpenses           = "avg_monthly_expenses"
	FieldCreditCardUtilization        = "credit_card_utilization"
	FieldSubscriptionServices         = "subscription_services"
	FieldFinancialEmergenciesLastYear = "financial_emergencies_last_year"
	FieldInflationRate                = "inflation_rate"
	FieldReasonForLoan                = "reason_for_loan"
	FieldPlatformRatings              = "platform_ratings"
	FieldCustomerFeedbackScore        = "customer_feedback_score"
	FieldWorkConsistency              = "work_consistency"
	FieldPenalties                    = "penalties"
	FieldAlternativeIncomeSource      = "alternative_income_source"
	FieldLoanCoapplicant              = "loan_coapplicant"
	FieldLocation                     = "location"
	FieldUrbanRural                   = "urban_rural"
	FieldAvgPlatformTenure            = "avg_platform_tenure"
	FieldFamilyDependents             = "family_dependents"
	FieldCostOfLivingIndex            = "cost_of_living_index"

	// LabelField is the target column present in training data.
	LabelField = "loan_approved"

	// AvgPlatformRating is the derived ratings column.
	AvgPlatformRating = "avg_platform_rating"
	// ReasonColumnPrefix prefixes every loan reason one-hot column.
	ReasonColumnPrefix = FieldReasonForLoan + "_"
)

// Column indexes the base numeric columns of a Derived record. The order is the
// order of the leading columns of every feature vector.
type Column int

const (
	ColAge Column = iota
	ColEducationLevel
	ColNumPlatforms
	ColWorkExperience
	ColMonthlyIncome
	ColSeasonalVariation
	ColIncomeVolatility
	ColSavingsBalance
	ColDebtToIncomeRatio
	ColCreditScore
	ColExistingLoans
	ColLoanAmountRequested
	ColTransactionFrequency
	ColAvgMonthlyExpenses
	ColCreditCardUtilization
	ColSubscriptionServices
	ColFinancialEmergenciesLastYear
	ColInflationRate
	ColCustomerFeedbackScore
	ColWorkConsistency
	ColPenalties
	ColAlternativeIncomeSource
	ColLoanCoapplicant
	ColUrbanRural
	ColAvgPlatformTenure
	ColFamilyDependents
	ColCostOfLivingIndex

	// NumColumns is the number of base numeric columns.
	NumColumns
)

// noColumn marks fields that do not map to a base column.
const noColumn Column = -1

// FieldKind is the type of a schema field.
type FieldKind int

const (
	// KindNumeric is a continuous or count valued field.
	KindNumeric FieldKind = iota
	// KindOrdinal is a categorical field with an order encoded as integers.
	KindOrdinal
	// KindNominal is a categorical field without order.
	KindNominal
	// KindStructured is free text with an internal structure (ratings).
	KindStructured
	// KindDescriptive is an identifying or descriptive field that never
	// becomes a feature.
	KindDescriptive
)

// Field describes one raw field of the applicant schema.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	// Domain lists the accepted values of a categorical field.
	Domain []string
	// Codes maps ordinal categorical values to their numeric encoding.
	Codes map[string]float64
	// Log1p marks skewed fields normalized with a fixed log1p transform.
	Log1p bool
	// Power marks the single field receiving the fitted power transform.
	Power bool
	// Column is the base column of the field, or -1.
	Column Column

	set    func(r *domain.RawRecord, raw string) error
	value  func(r *domain.RawRecord) (string, bool)
	number func(r *domain.RawRecord) (float64, bool)
}

// Set parses raw into the record field. raw must not be a missing marker.
func (f Field) Set(r *domain.RawRecord, raw string) error { return f.set(r, raw) }

// Value returns the textual value of the field in r and whether it is present.
func (f Field) Value(r *domain.RawRecord) (string, bool) { return f.value(r) }

// Number returns the numeric encoding of the field in r and whether it is
// present. Fields without a numeric encoding always report false.
func (f Field) Number(r *domain.RawRecord) (float64, bool) {
	if f.number == nil {
		return 0, false
	}

	return f.number(r)
}

func numeric(name string, required bool, col Column, acc func(*domain.RawRecord) **float64) Field {
	return Field{
		Name:     name,
		Kind:     KindNumeric,
		Required: required,
		Column:   col,
		set: func(r *domain.RawRecord, raw string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
				return serrors.Field(serrors.ErrSchemaViolation, name, "field %q: %q is not a finite number", name, raw)
			}
			*acc(r) = &v

			return nil
		},
		value: func(r *domain.RawRecord) (string, bool) {
			if p := *acc(r); p != nil {
				return strconv.FormatFloat(*p, 'g', -1, 64), true
			}

			return "", false
		},
		number: func(r *domain.RawRecord) (float64, bool) {
			if p := *acc(r); p != nil {
				return *p, true
			}

			return 0, false
		},
	}
}

func text(name string, kind FieldKind, acc func(*domain.RawRecord) **string) Field {
	return Field{
		Name:   name,
		Kind:   kind,
		Column: noColumn,
		set: func(r *domain.RawRecord, raw string) error {
			v := raw
			*acc(r) = &v

			return nil
		},
		value: func(r *domain.RawRecord) (string, bool) {
			if p := *acc(r); p != nil {
				return *p, true
			}

			return "", false
		},
	}
}

func categorical[T ~string](name string, kind FieldKind, required bool, col Column, values []T,
	codes map[T]float64, acc func(*domain.RawRecord) **T) Field {
	dom := make([]string, len(values))
	for i, v := range values {
		dom[i] = string(v)
	}
	var codeMap map[string]float64
	if codes != nil {
		codeMap = make(map[string]float64, len(codes))
		for k, v := range codes {
			codeMap[string(k)] = v
		}
	}

	f := Field{
		Name:     name,
		Kind:     kind,
		Required: required,
		Domain:   dom,
		Codes:    codeMap,
		Column:   col,
		value: func(r *domain.RawRecord) (string, bool) {
			if p := *acc(r); p != nil {
				return string(*p), true
			}

			return "", false
		},
	}
	if codeMap != nil {
		f.number = func(r *domain.RawRecord) (float64, bool) {
			p := *acc(r)
			if p == nil {
				return 0, false
			}
			v, ok := codeMap[string(*p)]

			return v, ok
		}
	}
	f.set = func(r *domain.RawRecord, raw string) error {
		v := strings.TrimSpace(raw)
		if !f.InDomain(v) {
			return domainViolation(f, v)
		}
		t := T(v)
		*acc(r) = &t

		return nil
	}

	return f
}

// InDomain reports whether v is an accepted value of a categorical field.
func (f Field) InDomain(v string) bool {
	for _, d := range f.Domain {
		if d == v {
			return true
		}
	}

	return false
}

func domainViolation(f Field, v string) error {
	msg := fmt.Sprintf("field %q: value %q outside domain %q", f.Name, v, f.Domain)
	if hint := suggest(v, f.Domain); hint != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", hint)
	}

	return serrors.Field(serrors.ErrSchemaViolation, f.Name, "%s", msg)
}

var yesNoCodes = map[domain.YesNo]float64{domain.Yes: 1, domain.No: 0} //nolint: gochecknoglobals

// schema lists every raw field in canonical order.
var schema = []Field{ //nolint: gochecknoglobals
	text(FieldApplicantID, KindDescriptive, func(r *domain.RawRecord) **string { return &r.ApplicantID }),
	numeric(FieldAge, true, ColAge, func(r *domain.RawRecord) **float64 { return &r.Age }),
	categorical(FieldEducationLevel, KindOrdinal, false, ColEducationLevel,
		[]domain.EducationLevel{domain.EducationHighSchool, domain.EducationGraduate, domain.EducationPostgraduate},
		map[domain.EducationLevel]float64{
			domain.EducationHighSchool:   0,
			domain.EducationGraduate:     1,
			domain.EducationPostgraduate: 2,
		},
		func(r *domain.RawRecord) **domain.EducationLevel { return &r.EducationLevel }),
	text(FieldGigPlatforms, KindDescriptive, func(r *domain.RawRecord) **string { return &r.GigPlatforms }),
	withLog1p(numeric(FieldNumPlatforms, true, ColNumPlatforms,
		func(r *domain.RawRecord) **float64 { return &r.NumPlatforms })),
	numeric(FieldWorkExperience, false, ColWorkExperience,
		func(r *domain.RawRecord) **float64 { return &r.WorkExperience }),
	numeric(FieldMonthlyIncome, false, ColMonthlyIncome,
		func(r *domain.RawRecord) **float64 { return &r.MonthlyIncome }),
	numeric(FieldSeasonalVariation, true, ColSeasonalVariation,
		func(r *domain.RawRecord) **float64 { return &r.SeasonalVariation }),
	numeric(FieldIncomeVolatility, true, ColIncomeVolatility,
		func(r *domain.RawRecord) **float64 { return &r.IncomeVolatility }),
	withLog1p(numeric(FieldSavingsBalance, false, ColSavingsBalance,
		func(r *domain.RawRecord) **float64 { return &r.SavingsBalance })),
	numeric(FieldDebtToIncomeRatio, true, ColDebtToIncomeRatio,
		func(r *domain.RawRecord) **float64 { return &r.DebtToIncomeRatio }),
	withPower(numeric(FieldCreditScore, false, ColCreditScore,
		func(r *domain.RawRecord) **float64 { return &r.CreditScore })),
	withLog1p(numeric(FieldExistingLoans, true, ColExistingLoans,
		func(r *domain.RawRecord) **float64 { return &r.ExistingLoans })),
	withLog1p(numeric(FieldLoanAmountRequested, true, ColLoanAmountRequested,
		func(r *domain.RawRecord) **float64 { return &r.LoanAmountRequested })),
	numeric(FieldTransactionFrequency, true, ColTransactionFrequency,
		func(r *domain.RawRecord) **float64 { return &r.TransactionFrequency }),
	numeric(FieldAvgMonthlyExpenses, false, ColAvgMonthlyExpenses,
		func(r *domain.RawRecord) **float64 { return &r.AvgMonthlyExpenses }),
	numeric(FieldCreditCardUtilization, true, ColCreditCardUtilization,
		func(r *domain.RawRecord) **float64 { return &r.CreditCardUtilization }),
	numeric(FieldSubscriptionServices, true, ColSubscriptionServices,
		func(r *domain.RawRecord) **float64 { return &r.SubscriptionServices }),
	numeric(FieldFinancialEmergenciesLastYear, true, ColFinancialEmergenciesLastYear,
		func(r *domain.RawRecord) **float64 { return &r.FinancialEmergenciesLastYear }),
	numeric(FieldInflationRate, true, ColInflationRate,
		func(r *domain.RawRecord) **float64 { return &r.InflationRate }),
	categorical(FieldReasonForLoan, KindNominal, true, noColumn,
		[]domain.LoanReason{
			domain.ReasonBusinessExpansion,
			domain.ReasonDebtConsolidation,
			domain.ReasonEducation,
			domain.ReasonHomeRenovation,
			domain.ReasonMedicalEmergency,
			domain.ReasonOther,
			domain.ReasonVehiclePurchase,
		}, nil,
		func(r *domain.RawRecord) **domain.LoanReason { return &r.ReasonForLoan }),
	text(FieldPlatformRatings, KindStructured, func(r *domain.RawRecord) **string { return &r.PlatformRatings }),
	numeric(FieldCustomerFeedbackScore, true, ColCustomerFeedbackScore,
		func(r *domain.RawRecord) **float64 { return &r.CustomerFeedbackScore }),
	numeric(FieldWorkConsistency, true, ColWorkConsistency,
		func(r *domain.RawRecord) **float64 { return &r.WorkConsistency }),
	withLog1p(numeric(FieldPenalties, true, ColPenalties,
		func(r *domain.RawRecord) **float64 { return &r.Penalties })),
	categorical(FieldAlternativeIncomeSource, KindNominal, true, ColAlternativeIncomeSource,
		[]domain.YesNo{domain.Yes, domain.No}, yesNoCodes,
		func(r *domain.RawRecord) **domain.YesNo { return &r.AlternativeIncomeSource }),
	categorical(FieldLoanCoapplicant, KindNominal, true, ColLoanCoapplicant,
		[]domain.YesNo{domain.Yes, domain.No}, yesNoCodes,
		func(r *domain.RawRecord) **domain.YesNo { return &r.LoanCoapplicant }),
	text(FieldLocation, KindDescriptive, func(r *domain.RawRecord) **string { return &r.Location }),
	categorical(FieldUrbanRural, KindNominal, false, ColUrbanRural,
		[]domain.Residence{domain.ResidenceUrban, domain.ResidenceRural},
		map[domain.Residence]float64{domain.ResidenceUrban: 1, domain.ResidenceRural: 0},
		func(r *domain.RawRecord) **domain.Residence { return &r.UrbanRural }),
	numeric(FieldAvgPlatformTenure, true, ColAvgPlatformTenure,
		func(r *domain.RawRecord) **float64 { return &r.AvgPlatformTenure }),
	numeric(FieldFamilyDependents, false, ColFamilyDependents,
		func(r *domain.RawRecord) **float64 { return &r.FamilyDependents }),
	numeric(FieldCostOfLivingIndex, true, ColCostOfLivingIndex,
		func(r *domain.RawRecord) **float64 { return &r.CostOfLivingIndex }),
}

func withLog1p(f Field) Field { f.Log1p = true; return f } //nolint: nlreturn
func withPower(f Field) Field { f.Power = true; return f } //nolint: nlreturn

// schemaIndex maps field names to their position in schema.
var schemaIndex = func() map[string]int { //nolint: gochecknoglobals
	idx := make(map[string]int, len(schema))
	for i, f := range schema {
		idx[f.Name] = i
	}

	return idx
}()

// columnNames holds the name of every base column, indexed by Column.
var columnNames = func() [NumColumns]string { //nolint: gochecknoglobals
	var names [NumColumns]string
	for _, f := range schema {
		if f.Column != noColumn {
			names[f.Column] = f.Name
		}
	}

	return names
}()

// Fields returns the schema fields in canonical order.
func Fields() []Field {
	out := make([]Field, len(schema))
	copy(out, schema)

	return out
}

// FieldNames returns the names of all schema fields in canonical order.
func FieldNames() []string {
	out := make([]string, len(schema))
	for i, f := range schema {
		out[i] = f.Name
	}

	return out
}

// Lookup finds a field by name.
func Lookup(name string) (Field, bool) {
	i, ok := schemaIndex[name]
	if !ok {
		return Field{}, false
	}

	return schema[i], true
}

// ColumnName returns the feature name of a base column.
func ColumnName(c Column) string { return columnNames[c] }

// BaseColumns returns the base column names in feature order.
func BaseColumns() []string {
	out := make([]string, NumColumns)
	copy(out, columnNames[:])

	return out
}

// Log1pColumns returns the base columns normalized with log1p.
func Log1pColumns() []Column {
	var out []Column
	for _, f := range schema {
		if f.Log1p {
			out = append(out, f.Column)
		}
	}

	return out
}

// PowerColumn returns the single base column receiving the fitted power transform.
func PowerColumn() Column {
	for _, f := range schema {
		if f.Power {
			return f.Column
		}
	}

	return noColumn
}

// ReasonDomain returns the accepted loan reasons in sorted order.
func ReasonDomain() []domain.LoanReason {
	f, _ := Lookup(FieldReasonForLoan)
	out := make([]domain.LoanReason, len(f.Domain))
	for i, d := range f.Domain {
		out[i] = domain.LoanReason(d)
	}

	return out
}
