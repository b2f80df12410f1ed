package v1handler

import (
	"context"
	"fmt"
	"loanapproval/internal/config"
	"loanapproval/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CtxKey is the type of context keys set by this package.
type CtxKey string

// SubjectKey is the context key of the authenticated token subject.
const SubjectKey CtxKey = "Subject"

// SecHandlerOptions configures bearer token verification.
type SecHandlerOptions struct {
	// PublicKey is the PEM encoded RSA key tokens are signed for.
	PublicKey string
}

// NewSecHandlerOptions constructs SecHandlerOptions from the application config.
func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{PublicKey: cfg.JWT.PublicKey}
}

// SecHandler verifies RS256 bearer tokens whose subject is a UUID.
type SecHandler struct {
	parser *jwt.Parser
	keyFn  jwt.Keyfunc
}

func NewSecHandler(opts *SecHandlerOptions) (*SecHandler, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	return &SecHandler{
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
		keyFn: func(*jwt.Token) (any, error) { return key, nil },
	}, nil
}

// HandleBearerAuth validates token and stores its subject in the returned context.
func (s *SecHandler) HandleBearerAuth(ctx context.Context, token string) (context.Context, error) {
	var claims jwt.RegisteredClaims
	if _, err := s.parser.ParseWithClaims(token, &claims, s.keyFn); err != nil {
		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token")
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token subject")
	}

	return context.WithValue(ctx, SubjectKey, subject), nil
}

// GetSubjectFromContext returns the authenticated subject, or "" for
// unauthenticated requests.
func GetSubjectFromContext(ctx context.Context) string {
	subject, ok := ctx.Value(SubjectKey).(uuid.UUID)
	if !ok {
		return ""
	}

	return subject.String()
}
