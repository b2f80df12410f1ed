package ingest

import (
	"loanapproval/internal/features"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"math"
	"math/rand/v2"
	"slices"
)

// DatasetSplit is a stratified partition of a labeled dataset. It is produced
// once and never re-split; accessors return copies.
type DatasetSplit struct {
	train []domain.LabeledRecord
	test  []domain.LabeledRecord
}

// Train returns the training subset.
func (s DatasetSplit) Train() []domain.LabeledRecord { return slices.Clone(s.train) }

// Test returns the held-out subset.
func (s DatasetSplit) Test() []domain.LabeledRecord { return slices.Clone(s.test) }

// Split partitions records into train and test subsets preserving the label
// proportion of each class. The test share of every class is rounded to the
// nearest record; the same seed always yields the same partition. Records keep
// their input order within each subset.
func Split(records []domain.LabeledRecord, testRatio float64, seed uint64) (DatasetSplit, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return DatasetSplit{}, serrors.With(serrors.ErrBadRequest, "test ratio %v must be in (0, 1)", testRatio)
	}

	byClass := map[domain.Label][]int{}
	for i, r := range records {
		if !r.Label.Valid() {
			return DatasetSplit{}, serrors.Field(serrors.ErrSchemaViolation, features.LabelField,
				"record %d: %d is not a binary label", i+1, r.Label)
		}
		byClass[r.Label] = append(byClass[r.Label], i)
	}

	rng := rand.New(rand.NewPCG(seed, seed)) //nolint: gosec
	isTest := make([]bool, len(records))
	for _, label := range []domain.Label{domain.LabelRejected, domain.LabelApproved} {
		idx := byClass[label]
		if len(idx) == 0 {
			continue
		}
		if len(idx) < 2 {
			return DatasetSplit{}, serrors.With(serrors.ErrInsufficientData,
				"class %d has %d record, at least 2 are needed to stratify", label, len(idx))
		}

		nTest := int(math.Round(float64(len(idx)) * testRatio))
		nTest = min(max(nTest, 1), len(idx)-1)

		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for _, i := range idx[:nTest] {
			isTest[i] = true
		}
	}

	var split DatasetSplit
	for i, r := range records {
		if isTest[i] {
			split.test = append(split.test, r)
		} else {
			split.train = append(split.train, r)
		}
	}
	if len(split.train) == 0 || len(split.test) == 0 {
		return DatasetSplit{}, serrors.With(serrors.ErrInsufficientData, "not enough records to split")
	}

	return split, nil
}
