package controller

import (
	"context"
	"loanapproval/pkg/serrors"
	"net/http"
	"strings"
)

// Authenticator validates a bearer token and returns the context the request
// continues with.
type Authenticator func(ctx context.Context, token string) (context.Context, error)

// ErrorWriter renders err as the response of r.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// WithBearerAuth returns a middleware that requires an "Authorization: Bearer"
// header accepted by authenticate. Rejected requests are rendered by onError
// with an error of kind serrors.ErrUnauthorized.
func WithBearerAuth(authenticate Authenticator, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="loanapproval"`)
				onError(w, r, serrors.With(serrors.ErrUnauthorized, "missing bearer token"))

				return
			}

			ctx, err := authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="loanapproval", error="invalid_token"`)
				onError(w, r, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid bearer token"))

				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
