package v1handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"loanapproval/internal/api/handler/v1handler"
	"loanapproval/pkg/logger"
	"loanapproval/pkg/serrors"
	"net/http"
	"testing"

	"github.com/ogen-go/ogen/ogenerrors"
	"github.com/ogen-go/ogen/validate"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func TestNewError(t *testing.T) {
	cases := map[string]struct {
		err     error
		status  int
		code    string
		message string
		field   string
	}{
		"plain error": {
			err: errors.New("boom"), status: 500, code: serrors.ErrInternal.Error(), message: "internal error",
		},
		"kind sentinel": {
			err: serrors.ErrNotFound, status: 404, code: serrors.ErrNotFound.Error(), message: "resource not found",
		},
		"with message": {
			err:    serrors.With(serrors.ErrBadRequest, "invalid payload"),
			status: 400, code: serrors.ErrBadRequest.Error(), message: "invalid payload",
		},
		"wrapped cause is hidden": {
			err:    serrors.Wrap(serrors.ErrUnauthorized, errors.New("bad token"), "unauthorized"),
			status: 401, code: serrors.ErrUnauthorized.Error(), message: "unauthorized",
		},
		"internal kind": {
			err: serrors.KindOnly(serrors.ErrInternal), status: 500, code: serrors.ErrInternal.Error(), message: "internal error",
		},
		"schema violation": {
			err:    fmt.Errorf("could not derive features: %w", serrors.Field(serrors.ErrSchemaViolation, "age", "age is required")),
			status: 422, code: serrors.ErrSchemaViolation.Error(), message: "age is required", field: "age",
		},
		"no artifact": {
			err:    serrors.With(serrors.ErrMissingFittedArtifact, "no trained artifact has been loaded"),
			status: 503, code: serrors.ErrMissingFittedArtifact.Error(), message: "no trained artifact has been loaded",
		},
		"request decoding": {
			err: &ogenerrors.DecodeRequestError{
				OperationContext: ogenerrors.OperationContext{Name: v1handler.CreatePredictionOperation, ID: "createPrediction"},
				Err:              errors.New("unexpected EOF"),
			},
			status: 400, code: serrors.ErrBadRequest.Error(), message: "bad request",
		},
		"request decoding keeps the semantic kind": {
			err: &ogenerrors.DecodeRequestError{
				OperationContext: ogenerrors.OperationContext{Name: v1handler.CreatePredictionOperation, ID: "createPrediction"},
				Err:              serrors.Field(serrors.ErrSchemaViolation, "agee", "unknown field"),
			},
			status: 422, code: serrors.ErrSchemaViolation.Error(), message: "unknown field", field: "agee",
		},
		"unsupported content type": {
			err:    validate.InvalidContentType("text/csv"),
			status: 415, code: serrors.ErrBadRequest.Error(), message: "unsupported content type",
		},
		"body too large": {
			err: &http.MaxBytesError{Limit: 10}, status: 413, code: serrors.ErrBadRequest.Error(), message: "request body too large",
		},
	}

	h := v1handler.New(v1handler.Deps{}, v1handler.Options{})
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := h.NewError(context.Background(), tc.err)
			require.Equal(t, tc.status, res.StatusCode)
			require.Equal(t, tc.code, res.Response.Code)
			require.Equal(t, tc.message, res.Response.Message)
			require.Equal(t, tc.field, res.Response.Field)
		})
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func decodeError(t *testing.T, res *http.Response) errorBody {
	t.Helper()
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var body errorBody
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	return body
}
