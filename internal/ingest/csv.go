// Package ingest reads and writes applicant datasets as CSV with a header row
// and produces the stratified train/test split.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"loanapproval/internal/features"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"strconv"
	"strings"
)

// ReadLabeled reads a CSV dataset whose header includes the label column.
func ReadLabeled(r io.Reader) ([]domain.LabeledRecord, error) {
	var out []domain.LabeledRecord
	err := read(r, true, func(rec domain.RawRecord, label *domain.Label) {
		out = append(out, domain.LabeledRecord{Record: rec, Label: *label})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ReadUnlabeled reads a CSV dataset of inference records. A label column, if
// present, is ignored.
func ReadUnlabeled(r io.Reader) ([]domain.RawRecord, error) {
	var out []domain.RawRecord
	err := read(r, false, func(rec domain.RawRecord, _ *domain.Label) {
		out = append(out, rec)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func read(r io.Reader, labeled bool, emit func(domain.RawRecord, *domain.Label)) error {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return serrors.With(serrors.ErrInsufficientData, "dataset is empty")
		}

		return fmt.Errorf("could not read csv header: %w", err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if err = features.CheckColumns(header); err != nil {
		return err
	}

	labelAt := -1
	for i, name := range header {
		if name == features.LabelField {
			labelAt = i
		}
	}
	if labeled && labelAt < 0 {
		return serrors.Field(serrors.ErrSchemaViolation, features.LabelField,
			"required column %q is missing", features.LabelField)
	}

	values := make(map[string]string, len(header))
	for row := 2; ; row++ {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not read csv row %d: %w", row, err)
		}

		clear(values)
		for i, name := range header {
			if i != labelAt {
				values[name] = cells[i]
			}
		}

		rec, err := features.ParseRecord(values)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}

		if !labeled {
			emit(rec, nil)

			continue
		}
		label, err := ParseLabel(cells[labelAt])
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		emit(rec, &label)
	}
}

// ParseLabel parses a binary approval label ("0"/"1", also "0.0"/"1.0").
func ParseLabel(raw string) (domain.Label, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	switch {
	case err == nil && v == 0:
		return domain.LabelRejected, nil
	case err == nil && v == 1:
		return domain.LabelApproved, nil
	default:
		return 0, serrors.Field(serrors.ErrSchemaViolation, features.LabelField,
			"field %q: %q is not a binary label", features.LabelField, raw)
	}
}

// WriteLabeled writes records as CSV with the canonical header followed by the
// label column. Missing values are written as empty cells.
func WriteLabeled(w io.Writer, records []domain.LabeledRecord) error {
	fields := features.Fields()
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		header = append(header, f.Name)
	}
	if err := cw.Write(append(header, features.LabelField)); err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}

	row := make([]string, len(fields)+1)
	for i := range records {
		for j, f := range fields {
			row[j], _ = f.Value(&records[i].Record)
		}
		row[len(fields)] = strconv.Itoa(int(records[i].Label))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("could not write csv row %d: %w", i+2, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("could not flush csv: %w", err)
	}

	return nil
}
