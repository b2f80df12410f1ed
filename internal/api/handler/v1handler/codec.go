package v1handler

import (
	"io"
	"loanapproval/internal/features"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/serrors"
	"net/http"
	"time"

	"github.com/go-faster/jx"
)

// readBody reads a JSON request body, honouring the configured size limit.
// Errors carry the operation of r.
func (h Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if err := checkContentType(r); err != nil {
		return nil, decodeRequestError(r, err)
	}

	body := r.Body
	if h.options.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.options.MaxBodyBytes)
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, decodeRequestError(r, err)
	}

	return b, nil
}

// DecodeRecord reads one applicant from a JSON object. String and number
// values are kept as their literal text and parsed by the feature schema, null
// marks a field as missing.
func DecodeRecord(b []byte) (domain.RawRecord, error) {
	values := map[string]*string{}

	d := jx.DecodeBytes(b)
	if d.Next() != jx.Object {
		return domain.RawRecord{}, serrors.With(serrors.ErrBadRequest, "request body must be a JSON object")
	}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		name := string(key)
		if _, dup := values[name]; dup {
			return serrors.Field(serrors.ErrBadRequest, name, "duplicate field %q", name)
		}

		switch d.Next() {
		case jx.Null:
			values[name] = nil

			return d.Null() //nolint: wrapcheck
		case jx.String:
			s, err := d.Str()
			if err != nil {
				return err //nolint: wrapcheck
			}
			values[name] = &s

			return nil
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return err //nolint: wrapcheck
			}
			s := n.String()
			values[name] = &s

			return nil
		default:
			if err := d.Skip(); err != nil {
				return err //nolint: wrapcheck
			}

			return serrors.Field(serrors.ErrSchemaViolation, name, "field %q must be a string, a number or null", name)
		}
	})
	if err != nil {
		if serrors.KindOf(err) != nil {
			return domain.RawRecord{}, err
		}

		return domain.RawRecord{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid JSON body")
	}

	return features.ParseNullableRecord(values)
}

func encodeVector(e *jx.Encoder, v domain.FeatureVector) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("columns", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range v.Columns {
					e.Str(c)
				}
			})
		})
		e.Field("values", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, x := range v.Values {
					e.Float64(x)
				}
			})
		})
	})
}

func encodeDiagnostics(e *jx.Encoder, diags []domain.Diagnostic) {
	e.Arr(func(e *jx.Encoder) {
		for _, d := range diags {
			e.Obj(func(e *jx.Encoder) {
				e.Field("kind", func(e *jx.Encoder) { e.Str(d.Kind) })
				e.Field("field", func(e *jx.Encoder) { e.Str(d.Field) })
				if d.Value != "" {
					e.Field("value", func(e *jx.Encoder) { e.Str(d.Value) })
				}
				e.Field("message", func(e *jx.Encoder) { e.Str(d.Message) })
			})
		}
	})
}

func encodeArtifact(e *jx.Encoder, a *domain.Artifact) {
	m := a.Metrics
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(a.ID.String()) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(a.CreatedAt.UTC().Format(time.RFC3339Nano)) })
		e.Field("metrics", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("accuracy", func(e *jx.Encoder) { e.Float64(m.Accuracy) })
				e.Field("precision", func(e *jx.Encoder) { e.Float64(m.Precision) })
				e.Field("recall", func(e *jx.Encoder) { e.Float64(m.Recall) })
				e.Field("f1", func(e *jx.Encoder) { e.Float64(m.F1) })
				e.Field("support", func(e *jx.Encoder) { e.Int(m.Support) })
				e.Field("confusion_matrix", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, row := range m.Confusion {
							e.Arr(func(e *jx.Encoder) {
								for _, n := range row {
									e.Int(n)
								}
							})
						}
					})
				})
			})
		})
	})
}
