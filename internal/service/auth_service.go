package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todoapp/internal/auth"
	apperrors "todoapp/internal/errors"
	"todoapp/internal/model"
	"todoapp/internal/repository"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, storedHash string) bool
}

// TokenIssuer signs access tokens for an identity.
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, error)
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken string, user *model.User, err error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, issuer TokenIssuer) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
	}
}

// Register creates a user account with the default role.
func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	// Check if user already exists
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	// If error is not "record not found", return it (could be a database error)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	// the request may have been cancelled while hashing
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user := &model.User{
		Username:       username,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and returns a signed access token. An unknown
// username and a wrong password fail identically.
func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.issuer.Issue(auth.IdentityOf(user))
	if err != nil {
		return "", nil, fmt.Errorf("issue access token: %w", err)
	}

	return accessToken, user, nil
}
