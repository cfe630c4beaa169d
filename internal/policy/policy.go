// Package policy enforces ownership scoping and role gates on task access.
// Every task read or write for a non-admin identity goes through a Query
// scoped to that identity before it reaches the store.
package policy

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

// Query selects tasks. A zero TaskID selects every task of the owner.
type Query struct {
	TaskID  uint
	OwnerID uint
}

// AuthorizeAdmin succeeds only for admin identities.
func AuthorizeAdmin(identity auth.Identity) error {
	if !identity.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}

// ScopeToOwner constrains q to tasks owned by identity, replacing any owner
// the caller supplied.
func ScopeToOwner(identity auth.Identity, q Query) Query {
	q.OwnerID = identity.ID
	return q
}

// Policy applies access rules in front of the task store.
type Policy struct {
	tasks repository.TaskRepository
}

// New creates a policy over tasks.
func New(tasks repository.TaskRepository) *Policy {
	return &Policy{tasks: tasks}
}

// ListOwned returns the tasks owned by identity.
func (p *Policy) ListOwned(ctx context.Context, identity auth.Identity) ([]model.Task, error) {
	q := ScopeToOwner(identity, Query{})
	tasks, err := p.tasks.FindByOwner(ctx, q.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListAll returns every task. Only admins may call it.
func (p *Policy) ListAll(ctx context.Context, identity auth.Identity) ([]model.Task, error) {
	if err := AuthorizeAdmin(identity); err != nil {
		return nil, err
	}
	tasks, err := p.tasks.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}
	return tasks, nil
}

// ResolveOwned fetches one task owned by identity. A task that exists but
// belongs to someone else is reported as ErrTaskNotFound.
func (p *Policy) ResolveOwned(ctx context.Context, identity auth.Identity, taskID uint) (*model.Task, error) {
	return resolveOwned(ctx, p.tasks, ScopeToOwner(identity, Query{TaskID: taskID}))
}

// CreateOwned stores task with identity as its owner.
func (p *Policy) CreateOwned(ctx context.Context, identity auth.Identity, task *model.Task) error {
	task.ID = 0
	task.OwnerID = ScopeToOwner(identity, Query{}).OwnerID
	if err := p.tasks.Create(ctx, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateOwned resolves the owned task, lets apply change its fields, and
// saves it, all in one transaction. The owner and id cannot be changed.
func (p *Policy) UpdateOwned(ctx context.Context, identity auth.Identity, taskID uint, apply func(*model.Task)) (*model.Task, error) {
	var updated *model.Task
	err := p.tasks.WithTransaction(ctx, func(ctx context.Context, repo repository.TaskRepository) error {
		task, err := resolveOwned(ctx, repo, ScopeToOwner(identity, Query{TaskID: taskID}))
		if err != nil {
			return err
		}
		id, owner := task.ID, task.OwnerID
		apply(task)
		task.ID, task.OwnerID = id, owner

		if err := repo.Update(ctx, task); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOwned resolves the owned task and deletes it in one transaction.
func (p *Policy) DeleteOwned(ctx context.Context, identity auth.Identity, taskID uint) error {
	return p.tasks.WithTransaction(ctx, func(ctx context.Context, repo repository.TaskRepository) error {
		task, err := resolveOwned(ctx, repo, ScopeToOwner(identity, Query{TaskID: taskID}))
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, task); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

func resolveOwned(ctx context.Context, repo repository.TaskRepository, q Query) (*model.Task, error) {
	if q.TaskID == 0 {
		return nil, apperrors.ErrTaskNotFound
	}
	task, err := repo.FindOwned(ctx, q.TaskID, q.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}
