package features

import (
	"errors"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once           //nolint: gochecknoglobals
	validate     *validator.Validate //nolint: gochecknoglobals
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})
	})

	return validate
}

// Validate checks a typed record against the schema: required fields must be
// present, numeric bounds must hold and categorical values must be inside
// their declared domain. The first violation is returned.
func Validate(rec domain.RawRecord) error {
	if err := recordValidator().Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return serrors.Wrap(serrors.ErrSchemaViolation, err, "could not validate record")
		}

		fe := verrs[0]
		if fe.Tag() == "required" {
			return serrors.Field(serrors.ErrSchemaViolation, fe.Field(), "required field %q is missing", fe.Field())
		}

		return serrors.Field(serrors.ErrSchemaViolation, fe.Field(),
			"field %q: %v violates constraint %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}

	for _, f := range schema {
		if f.Kind != KindOrdinal && f.Kind != KindNominal {
			continue
		}
		v, ok := f.Value(&rec)
		if ok && !f.InDomain(v) {
			return domainViolation(f, v)
		}
	}

	return nil
}
