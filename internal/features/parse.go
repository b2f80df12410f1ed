package features

import (
	"fmt"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// missingMarkers are raw values that mean "absent" at the system boundary.
var missingMarkers = map[string]struct{}{ //nolint: gochecknoglobals
	"":     {},
	"NA":   {},
	"NaN":  {},
	"nan":  {},
	"null": {},
}

// IsMissing reports whether raw is a missing-value marker.
func IsMissing(raw string) bool {
	_, ok := missingMarkers[strings.TrimSpace(raw)]

	return ok
}

// ParseRecord builds a typed record from a field name to value mapping. Unknown
// field names, categorical values outside their domain, unparseable numbers and
// absent required fields fail with a schema violation.
func ParseRecord(values map[string]string) (domain.RawRecord, error) {
	nullable := make(map[string]*string, len(values))
	for k, v := range values {
		nullable[k] = &v
	}

	return ParseNullableRecord(nullable)
}

// ParseNullableRecord is ParseRecord for inputs where an explicit null is
// represented by a nil value.
func ParseNullableRecord(values map[string]*string) (domain.RawRecord, error) {
	var rec domain.RawRecord

	// Sorted keys keep the reported violation stable across calls.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		f, ok := Lookup(name)
		if !ok {
			return domain.RawRecord{}, unknownField(name, FieldNames())
		}

		raw := values[name]
		if raw == nil || IsMissing(*raw) {
			continue
		}
		if err := f.Set(&rec, *raw); err != nil {
			return domain.RawRecord{}, err
		}
	}

	if err := Validate(rec); err != nil {
		return domain.RawRecord{}, err
	}

	return rec, nil
}

// CheckColumns verifies that every column of a tabular header is a schema field
// or the label column.
func CheckColumns(header []string) error {
	for _, name := range header {
		if name == LabelField {
			continue
		}
		if _, ok := Lookup(name); !ok {
			return unknownField(name, append(FieldNames(), LabelField))
		}
	}

	return nil
}

func unknownField(name string, known []string) error {
	msg := fmt.Sprintf("unknown field %q", name)
	if hint := suggest(name, known); hint != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", hint)
	}

	return serrors.Field(serrors.ErrSchemaViolation, name, "%s", msg)
}

// suggest returns the closest candidate to v, or "" when nothing is close.
// It only feeds error messages; values are never coerced to the suggestion.
func suggest(v string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(v), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}

	if bestDist < 0 || bestDist > max(2, len(v)/3) {
		return ""
	}

	return best
}
