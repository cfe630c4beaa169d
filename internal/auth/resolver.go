package auth

import (
	"log/slog"
	"strings"

	apperrors "todoapp/internal/errors"
)

// TokenValidator validates raw token strings.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

// Resolver turns raw credential material into an Identity.
type Resolver struct {
	validator TokenValidator
	logger    *slog.Logger
}

// NewResolver creates a resolver backed by validator.
func NewResolver(validator TokenValidator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{validator: validator, logger: logger}
}

// Resolve validates raw and returns the identity it carries. Every failure,
// including an empty token, is reported as ErrUnauthenticated; the specific
// reason is only logged.
func (r *Resolver) Resolve(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, apperrors.ErrUnauthenticated
	}

	claims, err := r.validator.Validate(raw)
	if err != nil {
		r.logger.Debug("token rejected", "reason", err)
		return Identity{}, apperrors.ErrUnauthenticated
	}
	return claims.Identity(), nil
}
