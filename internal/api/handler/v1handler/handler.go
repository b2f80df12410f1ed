// Package v1handler implements the v1 HTTP API: online predictions, feature
// vectors, the served artifact and queued training runs.
package v1handler

import (
	"cmp"
	"context"
	"errors"
	"loanapproval/internal/serving"
	"loanapproval/internal/trainer"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/ogenerrors"
	"go.uber.org/zap"
)

// Deps holds the collaborators of the v1 handlers.
type Deps struct {
	Predictor serving.Predictor
	// Trainer may be nil when the process cannot queue training runs.
	Trainer trainer.Trainer
	// Dataset is the dataset of training runs requested without one.
	Dataset string
}

// Options configures request handling.
type Options struct {
	// MaxBodyBytes limits request bodies, 0 means unlimited.
	MaxBodyBytes int64
}

type Handler struct {
	deps    Deps
	options Options
}

func New(deps Deps, options Options) *Handler {
	return &Handler{deps: deps, options: options}
}

// Error is the body of every error response.
type Error struct {
	Code    string
	Message string
	// Field is the request field the error refers to, if any.
	Field string
}

// ErrorStatusCode pairs an error body with its HTTP status.
type ErrorStatusCode struct {
	StatusCode int
	Response   Error
}

var statuses = map[serrors.Kind]int{ //nolint: gochecknoglobals
	serrors.ErrBadRequest:            http.StatusBadRequest,
	serrors.ErrSchemaViolation:       http.StatusUnprocessableEntity,
	serrors.ErrInsufficientData:      http.StatusUnprocessableEntity,
	serrors.ErrUnauthorized:          http.StatusUnauthorized,
	serrors.ErrNotFound:              http.StatusNotFound,
	serrors.ErrConflict:              http.StatusConflict,
	serrors.ErrMissingFittedArtifact: http.StatusServiceUnavailable,
	serrors.ErrUnavailable:           http.StatusServiceUnavailable,
}

var defaultMessages = map[int]string{ //nolint: gochecknoglobals
	http.StatusBadRequest:            "bad request",
	http.StatusUnprocessableEntity:   "unprocessable record",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusNotFound:              "resource not found",
	http.StatusConflict:              "conflict",
	http.StatusServiceUnavailable:    "service unavailable",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusUnsupportedMediaType:  "unsupported content type",
}

// NewError maps err to an HTTP status and error body. Errors without a known
// semantic kind are internal and their details are only logged.
func (h Handler) NewError(ctx context.Context, err error) *ErrorStatusCode {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &ErrorStatusCode{
			StatusCode: http.StatusRequestEntityTooLarge,
			Response: Error{
				Code:    serrors.ErrBadRequest.Error(),
				Message: defaultMessages[http.StatusRequestEntityTooLarge],
			},
		}
	}

	fields := []zap.Field{zap.Error(err)}
	if op, ok := Operation(ctx); ok {
		fields = append(fields, zap.String("operation", op.Name))
	}

	kind := serrors.KindOf(err)
	status, ok := statuses[kind]
	if !ok {
		// request decoding failures without a semantic kind keep the status
		// the OpenAPI runtime assigns them
		if code := ogenerrors.ErrorCode(err); code < http.StatusInternalServerError {
			logger.Warn(ctx, "request rejected", fields...)

			return &ErrorStatusCode{
				StatusCode: code,
				Response:   Error{Code: serrors.ErrBadRequest.Error(), Message: cmp.Or(defaultMessages[code], "bad request")},
			}
		}
		logger.Error(ctx, "request failed", fields...)

		return &ErrorStatusCode{
			StatusCode: http.StatusInternalServerError,
			Response:   Error{Code: serrors.ErrInternal.Error(), Message: "internal error"},
		}
	}
	logger.Warn(ctx, "request rejected", fields...)

	res := Error{Code: kind.Error(), Message: defaultMessages[status]}
	var semantic *serrors.Error
	if errors.As(err, &semantic) {
		if semantic.Message() != "" {
			res.Message = semantic.Message()
		}
		res.Field = semantic.FieldName()
	}

	return &ErrorStatusCode{StatusCode: status, Response: res}
}

// WriteError renders err as a JSON error response.
func (h Handler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeResponse(w, h.NewError(r.Context(), err))
}

func (h Handler) writeResponse(w http.ResponseWriter, res *ErrorStatusCode) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(res.Response.Code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(res.Response.Message) })
		if res.Response.Field != "" {
			e.Field("field", func(e *jx.Encoder) { e.Str(res.Response.Field) })
		}
	})
	writeJSON(w, res.StatusCode, &e)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
