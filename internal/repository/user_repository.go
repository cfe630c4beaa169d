package repository

import (
	"context"

	"gorm.io/gorm"

	"todoapp/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
	UpdatePhoneNumber(ctx context.Context, id uint, phoneNumber string) error
	UpdateRole(ctx context.Context, id uint, role model.Role) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return r.updateColumn(ctx, id, "hashed_password", hashedPassword)
}

func (r *userRepository) UpdatePhoneNumber(ctx context.Context, id uint, phoneNumber string) error {
	return r.updateColumn(ctx, id, "phone_number", phoneNumber)
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role model.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

// updateColumn writes a single column so concurrent changes to other
// columns of the same row are never overwritten.
func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update(column, value).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
