package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"todoapp/internal/model"
)

// DefaultTokenTTL is how long access tokens stay valid when not configured.
const DefaultTokenTTL = 20 * time.Minute

var (
	// ErrInvalidSignature is returned for tampered tokens or tokens signed by another key.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("token has expired")
	// ErrMalformed is returned for tokens that do not decode into the expected claims.
	ErrMalformed = errors.New("token is malformed")
)

// Claims represents JWT claims.
type Claims struct {
	UserID uint       `json:"id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the identity described by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		ID:       c.UserID,
		Username: c.Subject,
		Role:     c.Role,
	}
}

// Issuer mints signed access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption customizes an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides the time source used for iat/nbf/exp.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates an issuer signing with secret. An empty secret is a
// configuration error.
func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the validity window of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue generates a new access token for identity.
func (i *Issuer) Issue(identity Identity) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID: identity.ID,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   identity.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validator checks access tokens signed by the matching Issuer secret.
type Validator struct {
	secret []byte
}

// NewValidator creates a validator for tokens signed with secret.
func NewValidator(secret string) (*Validator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Validator{secret: []byte(secret)}, nil
}

// Validate verifies the signature and expiry of tokenString and returns its
// claims. Errors are always one of ErrInvalidSignature, ErrExpired or ErrMalformed.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.Subject == "" || claims.UserID == 0 || !claims.Role.Valid() || claims.ExpiresAt == nil {
		return nil, ErrMalformed
	}
	return claims, nil
}

// classify folds jwt validation errors into the three token failures.
// A bad signature wins over expiry so nothing from an unverified token is trusted.
func classify(err error) error {
	var vErr *jwt.ValidationError
	if !errors.As(err, &vErr) {
		return ErrMalformed
	}
	switch {
	case vErr.Errors&jwt.ValidationErrorMalformed != 0:
		return ErrMalformed
	case vErr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
		return ErrInvalidSignature
	case vErr.Errors&jwt.ValidationErrorExpired != 0:
		return ErrExpired
	default:
		return ErrMalformed
	}
}
