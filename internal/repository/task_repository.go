package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"todoapp/internal/model"
)

// ErrMissingOwner is returned when an owner-scoped query has no owner.
var ErrMissingOwner = errors.New("owner id is required")

// TaskRepository defines task persistence operations.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, task *model.Task) error
	FindOwned(ctx context.Context, id, ownerID uint) (*model.Task, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]model.Task, error)
	FindAll(ctx context.Context) ([]model.Task, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TaskRepository) error) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.OwnerID == 0 {
		return ErrMissingOwner
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// Update saves every column of an existing task except its owner.
func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Model(task).
		Where("owner_id = ?", task.OwnerID).
		Select("title", "description", "priority", "complete").
		Updates(task).Error
}

// Delete removes a task.
func (r *taskRepository) Delete(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ?", task.OwnerID).
		Delete(task).Error
}

// FindOwned finds a task by ID that belongs to ownerID.
func (r *taskRepository) FindOwned(ctx context.Context, id, ownerID uint) (*model.Task, error) {
	if ownerID == 0 {
		return nil, ErrMissingOwner
	}
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByOwner lists every task belonging to ownerID.
func (r *taskRepository) FindByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	if ownerID == 0 {
		return nil, ErrMissingOwner
	}
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindAll lists every task regardless of owner. Only the admin listing uses it.
func (r *taskRepository) FindAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// WithTransaction executes a function within a database transaction.
func (r *taskRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &taskRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
