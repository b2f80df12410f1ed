package features

import (
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"slices"
)

// Vocabulary is the closed, sorted set of loan reasons observed at fit time.
// The first category is the baseline: it has no column and encodes as the
// all-zero row.
type Vocabulary struct {
	categories []domain.LoanReason
}

// FitVocabulary collects the distinct loan reasons of the training records.
func FitVocabulary(records []Derived) Vocabulary {
	seen := make(map[domain.LoanReason]struct{})
	var cats []domain.LoanReason
	for _, r := range records {
		if _, ok := seen[r.Reason]; ok {
			continue
		}
		seen[r.Reason] = struct{}{}
		cats = append(cats, r.Reason)
	}
	slices.Sort(cats)

	return Vocabulary{categories: cats}
}

// NewVocabulary rebuilds a vocabulary from persisted categories. Categories
// outside the schema domain fail with a schema violation.
func NewVocabulary(categories []domain.LoanReason) (Vocabulary, error) {
	f, _ := Lookup(FieldReasonForLoan)
	for _, c := range categories {
		if !f.InDomain(string(c)) {
			return Vocabulary{}, domainViolation(f, string(c))
		}
	}

	cats := slices.Clone(categories)
	slices.Sort(cats)

	return Vocabulary{categories: slices.Compact(cats)}, nil
}

// Categories returns every fitted category, baseline first.
func (v Vocabulary) Categories() []domain.LoanReason {
	return slices.Clone(v.categories)
}

// Columns returns the one-hot column names, one per non-baseline category.
func (v Vocabulary) Columns() []string {
	if len(v.categories) < 2 {
		return nil
	}

	cols := make([]string, 0, len(v.categories)-1)
	for _, c := range v.categories[1:] {
		cols = append(cols, ReasonColumnPrefix+string(c))
	}

	return cols
}

// Encode returns the one-hot row of reason. A reason that was not seen at fit
// time encodes as the all-zero row together with a recoverable error.
func (v Vocabulary) Encode(reason domain.LoanReason) ([]float64, error) {
	row := make([]float64, max(len(v.categories)-1, 0))

	i := slices.Index(v.categories, reason)
	switch {
	case i < 0:
		return row, serrors.Field(serrors.ErrUnseenCategory, FieldReasonForLoan,
			"loan reason %q was not seen during fitting", reason)
	case i > 0:
		row[i-1] = 1
	}

	return row, nil
}
