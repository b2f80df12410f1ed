package controller_test

import (
	"context"
	"errors"
	"loanapproval/pkg/controller"
	"loanapproval/pkg/serrors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type subjectKey struct{}

func authenticate(ctx context.Context, token string) (context.Context, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}

	return context.WithValue(ctx, subjectKey{}, "operator"), nil
}

func TestWithBearerAuth(t *testing.T) {
	var rejected error
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		rejected = err
		w.WriteHeader(http.StatusUnauthorized)
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ := r.Context().Value(subjectKey{}).(string)
		w.Header().Set("X-Subject", subject)
	})
	handler := controller.WithBearerAuth(authenticate, onError)(next)

	cases := map[string]struct {
		header string
		status int
	}{
		"valid":          {header: "Bearer good", status: http.StatusOK},
		"lower scheme":   {header: "bearer good", status: http.StatusOK},
		"missing":        {header: "", status: http.StatusUnauthorized},
		"wrong scheme":   {header: "Basic good", status: http.StatusUnauthorized},
		"empty token":    {header: "Bearer ", status: http.StatusUnauthorized},
		"rejected token": {header: "Bearer bad", status: http.StatusUnauthorized},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rejected = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			res := rec.Result()
			require.Equal(t, tc.status, res.StatusCode)
			if tc.status == http.StatusOK {
				require.Equal(t, "operator", res.Header.Get("X-Subject"))
				require.NoError(t, rejected)

				return
			}
			require.ErrorIs(t, rejected, serrors.ErrUnauthorized)
			require.NotEmpty(t, res.Header.Get("WWW-Authenticate"))
		})
	}
}
