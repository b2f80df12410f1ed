package features

import (
	"loanapproval/pkg/serrors"
	"math"
	"strconv"
	"strings"
)

// ParseRatings averages the scores of a "Platform:Score; Platform:Score" string.
// Items that cannot be parsed are skipped. The returned average is always usable:
// when no item parses it is 0. A non-nil error is recoverable and reports the
// skipped input.
func ParseRatings(s string) (float64, error) {
	var (
		sum     float64
		n       int
		skipped []string
	)

	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		_, score, ok := strings.Cut(item, ":")
		if !ok {
			skipped = append(skipped, item)

			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			skipped = append(skipped, item)

			continue
		}

		sum += v
		n++
	}

	switch {
	case n == 0:
		return 0, serrors.Field(serrors.ErrUnparseableAuxiliaryField, FieldPlatformRatings,
			"no parseable rating in %q", s)
	case len(skipped) > 0:
		return sum / float64(n), serrors.Field(serrors.ErrUnparseableAuxiliaryField, FieldPlatformRatings,
			"skipped malformed ratings %q", skipped)
	default:
		return sum / float64(n), nil
	}
}
