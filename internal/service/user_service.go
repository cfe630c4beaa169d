package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"todoapp/internal/cache"
	apperrors "todoapp/internal/errors"
	"todoapp/internal/model"
	"todoapp/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes the caller's own account operations.
type UserService interface {
	Profile(ctx context.Context, userID uint) (*model.User, error)
	ChangePassword(ctx context.Context, userID uint, newPassword string) error
	ChangePhoneNumber(ctx context.Context, userID uint, phoneNumber string) error
}

// ProfileCache holds serialized profiles. *cache.Client implements it.
type ProfileCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	Version(ctx context.Context, key string) int64
	SetJSONIfVersion(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
}

type userService struct {
	repo   repository.UserRepository
	hasher PasswordHasher
	cache  ProfileCache
}

// NewUserService builds a UserService with repository and cache. profiles may be nil.
func NewUserService(repo repository.UserRepository, hasher PasswordHasher, profiles ProfileCache) UserService {
	if profiles == nil {
		profiles = (*cache.Client)(nil)
	}
	return &userService{repo: repo, hasher: hasher, cache: profiles}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	key := s.cacheKey(userID)
	var cached model.User
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	// read the version first so a change committed during the lookup
	// keeps this copy out of the cache
	version := s.cache.Version(ctx, key)
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSONIfVersion(ctx, key, version, user, userCacheTTL)
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uint, newPassword string) error {
	if _, err := s.find(ctx, userID); err != nil {
		return err
	}

	hashedPassword, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.cache.Invalidate(ctx, s.cacheKey(userID))
	return nil
}

func (s *userService) ChangePhoneNumber(ctx context.Context, userID uint, phoneNumber string) error {
	if _, err := s.find(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.UpdatePhoneNumber(ctx, userID, phoneNumber); err != nil {
		return fmt.Errorf("update phone number: %w", err)
	}
	s.cache.Invalidate(ctx, s.cacheKey(userID))
	return nil
}

func (s *userService) find(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
