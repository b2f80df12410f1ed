// Package fixture builds deterministic applicant datasets for tests.
package fixture

import (
	"fmt"
	"loanapproval/pkg/domain"
	"math"
	"math/rand/v2"
)

var reasons = []domain.LoanReason{ //nolint: gochecknoglobals
	domain.ReasonBusinessExpansion,
	domain.ReasonDebtConsolidation,
	domain.ReasonEducation,
	domain.ReasonHomeRenovation,
	domain.ReasonMedicalEmergency,
	domain.ReasonOther,
}

// Record returns a complete, valid applicant record.
func Record() domain.RawRecord {
	return domain.RawRecord{
		ApplicantID:                  domain.Ptr("A-0"),
		Age:                          domain.Ptr(34.0),
		EducationLevel:               domain.Ptr(domain.EducationGraduate),
		GigPlatforms:                 domain.Ptr("Uber, Ola"),
		NumPlatforms:                 domain.Ptr(2.0),
		WorkExperience:               domain.Ptr(5.0),
		MonthlyIncome:                domain.Ptr(42000.0),
		SeasonalVariation:            domain.Ptr(0.2),
		IncomeVolatility:             domain.Ptr(0.3),
		SavingsBalance:               domain.Ptr(120000.0),
		DebtToIncomeRatio:            domain.Ptr(0.4),
		CreditScore:                  domain.Ptr(710.0),
		ExistingLoans:                domain.Ptr(1.0),
		LoanAmountRequested:          domain.Ptr(250000.0),
		TransactionFrequency:         domain.Ptr(30.0),
		AvgMonthlyExpenses:           domain.Ptr(18000.0),
		CreditCardUtilization:        domain.Ptr(0.35),
		SubscriptionServices:         domain.Ptr(3.0),
		FinancialEmergenciesLastYear: domain.Ptr(1.0),
		InflationRate:                domain.Ptr(5.5),
		ReasonForLoan:                domain.Ptr(domain.ReasonHomeRenovation),
		PlatformRatings:              domain.Ptr("Uber:4.5; Ola:3.5"),
		CustomerFeedbackScore:        domain.Ptr(4.1),
		WorkConsistency:              domain.Ptr(0.8),
		Penalties:                    domain.Ptr(0.0),
		AlternativeIncomeSource:      domain.Ptr(domain.Yes),
		LoanCoapplicant:              domain.Ptr(domain.No),
		Location:                     domain.Ptr("Pune"),
		UrbanRural:                   domain.Ptr(domain.ResidenceUrban),
		AvgPlatformTenure:            domain.Ptr(24.0),
		FamilyDependents:             domain.Ptr(2.0),
		CostOfLivingIndex:            domain.Ptr(1.1),
	}
}

// Dataset returns n labeled records drawn from a fixed seed. Roughly a third of
// the records are approved, some optional fields are missing and a few records
// fall into the fraud branch. Vehicle Purchase never occurs, so it can be used
// as an unseen category.
func Dataset(n int, seed uint64) []domain.LabeledRecord {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint: gosec
	out := make([]domain.LabeledRecord, 0, n)

	for i := range n {
		r := Record()
		r.ApplicantID = domain.Ptr(fmt.Sprintf("A-%d", i))
		r.Age = domain.Ptr(float64(21 + rng.IntN(40)))
		r.EducationLevel = domain.Ptr([]domain.EducationLevel{
			domain.EducationHighSchool, domain.EducationGraduate, domain.EducationPostgraduate,
		}[rng.IntN(3)])
		r.NumPlatforms = domain.Ptr(float64(1 + rng.IntN(4)))
		r.WorkExperience = domain.Ptr(float64(rng.IntN(15)))
		r.MonthlyIncome = domain.Ptr(math.Round(15000 + rng.Float64()*60000))
		r.SavingsBalance = domain.Ptr(math.Round(rng.Float64() * 300000))
		r.DebtToIncomeRatio = domain.Ptr(math.Round(rng.Float64()*100) / 100)
		r.CreditScore = domain.Ptr(float64(300 + rng.IntN(600)))
		r.ExistingLoans = domain.Ptr(float64(rng.IntN(4)))
		r.LoanAmountRequested = domain.Ptr(math.Round(10000 + rng.Float64()*500000))
		r.AvgMonthlyExpenses = domain.Ptr(math.Round(5000 + rng.Float64()*30000))
		r.Penalties = domain.Ptr(float64(rng.IntN(3)))
		r.ReasonForLoan = domain.Ptr(reasons[rng.IntN(len(reasons))])
		r.PlatformRatings = domain.Ptr(fmt.Sprintf("Uber:%.1f; Swiggy:%.1f", 3+rng.Float64()*2, 3+rng.Float64()*2))
		r.FamilyDependents = domain.Ptr(float64(rng.IntN(5)))
		if rng.IntN(2) == 0 {
			r.UrbanRural = domain.Ptr(domain.ResidenceRural)
		}

		switch rng.IntN(12) {
		case 0:
			r.MonthlyIncome = nil
		case 1:
			r.CreditScore = nil
			r.SavingsBalance = nil
		case 2:
			r.EducationLevel = nil
			r.UrbanRural = nil
			r.FamilyDependents = nil
		case 3:
			r.WorkExperience = domain.Ptr(0.0)
			r.MonthlyIncome = nil
		case 4:
			r.PlatformRatings = domain.Ptr("unrated")
		}

		label := domain.LabelRejected
		if *r.DebtToIncomeRatio < 0.5 && r.CreditScore != nil && *r.CreditScore > 600 {
			label = domain.LabelApproved
		}
		out = append(out, domain.LabeledRecord{Record: r, Label: label})
	}

	return out
}
