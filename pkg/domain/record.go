package domain

// EducationLevel is the ordinal education category of an applicant.
type EducationLevel string

const (
	EducationHighSchool   EducationLevel = "High School"
	EducationGraduate     EducationLevel = "Graduate"
	EducationPostgraduate EducationLevel = "Postgraduate"
)

// Residence tells whether an applicant lives in an urban or rural area.
type Residence string

const (
	ResidenceUrban Residence = "Urban"
	ResidenceRural Residence = "Rural"
)

// YesNo is a binary categorical answer.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// LoanReason is the declared purpose of the requested loan.
type LoanReason string

const (
	ReasonBusinessExpansion LoanReason = "Business Expansion"
	ReasonDebtConsolidation LoanReason = "Debt Consolidation"
	ReasonEducation         LoanReason = "Education"
	ReasonHomeRenovation    LoanReason = "Home Renovation"
	ReasonMedicalEmergency  LoanReason = "Medical Emergency"
	ReasonOther             LoanReason = "Other"
	ReasonVehiclePurchase   LoanReason = "Vehicle Purchase"
)

// Label is the binary loan approval outcome.
type Label int

const (
	// LabelRejected marks a rejected application.
	LabelRejected Label = 0
	// LabelApproved marks an approved application.
	LabelApproved Label = 1
)

// Valid reports whether l is one of the two outcomes.
func (l Label) Valid() bool { return l == LabelRejected || l == LabelApproved }

// Decision returns the human readable decision for the label.
func (l Label) Decision() string {
	if l == LabelApproved {
		return "Approved"
	}

	return "Rejected"
}

// RawRecord is one applicant as ingested. Every field is a pointer so that an
// absent value is distinguishable from a zero value; which fields may be absent
// is decided by the feature schema and enforced at the system boundary.
type RawRecord struct {
	// Descriptive fields. They are accepted but never become features.
	ApplicantID  *string `json:"applicant_id,omitempty"`
	GigPlatforms *string `json:"gig_platforms,omitempty"`
	Location     *string `json:"location,omitempty"`

	Age                          *float64        `json:"age"                             validate:"required,gte=0"`
	EducationLevel               *EducationLevel `json:"education_level,omitempty"`
	NumPlatforms                 *float64        `json:"num_platforms"                   validate:"required,gte=0"`
	WorkExperience               *float64        `json:"work_experience,omitempty"       validate:"omitempty,gte=0"`
	MonthlyIncome                *float64        `json:"monthly_income,omitempty"        validate:"omitempty,gte=0"`
	SeasonalVariation            *float64        `json:"seasonal_variation"              validate:"required"`
	IncomeVolatility             *float64        `json:"income_volatility"               validate:"required"`
	SavingsBalance               *float64        `json:"savings_balance,omitempty"       validate:"omitempty,gte=0"`
	DebtToIncomeRatio            *float64        `json:"debt_to_income_ratio"            validate:"required"`
	CreditScore                  *float64        `json:"credit_score,omitempty"`
	ExistingLoans                *float64        `json:"existing_loans"                  validate:"required,gte=0"`
	LoanAmountRequested          *float64        `json:"loan_amount_requested"           validate:"required,gte=0"`
	TransactionFrequency         *float64        `json:"transaction_frequency"           validate:"required"`
	AvgMonthlyExpenses           *float64        `json:"avg_monthly_expenses,omitempty"`
	CreditCardUtilization        *float64        `json:"credit_card_utilization"         validate:"required"`
	SubscriptionServices         *float64        `json:"subscription_services"           validate:"required"`
	FinancialEmergenciesLastYear *float64        `json:"financial_emergencies_last_year" validate:"required"`
	InflationRate                *float64        `json:"inflation_rate"                  validate:"required"`
	ReasonForLoan                *LoanReason     `json:"reason_for_loan"                 validate:"required"`
	PlatformRatings              *string         `json:"platform_ratings,omitempty"`
	CustomerFeedbackScore        *float64        `json:"customer_feedback_score"         validate:"required"`
	WorkConsistency              *float64        `json:"work_consistency"                validate:"required"`
	Penalties                    *float64        `json:"penalties"                       validate:"required,gte=0"`
	AlternativeIncomeSource      *YesNo          `json:"alternative_income_source"       validate:"required"`
	LoanCoapplicant              *YesNo          `json:"loan_coapplicant"                validate:"required"`
	UrbanRural                   *Residence      `json:"urban_rural,omitempty"`
	AvgPlatformTenure            *float64        `json:"avg_platform_tenure"             validate:"required"`
	FamilyDependents             *float64        `json:"family_dependents,omitempty"     validate:"omitempty,gte=0"`
	CostOfLivingIndex            *float64        `json:"cost_of_living_index"            validate:"required"`
}

// LabeledRecord pairs a raw record with its known approval outcome.
type LabeledRecord struct {
	Record RawRecord
	Label  Label
}

// Ptr returns a pointer to v. It keeps record literals in tests and callers short.
func Ptr[T any](v T) *T { return &v }
