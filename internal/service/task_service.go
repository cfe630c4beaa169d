package service

import (
	"context"

	"todoapp/internal/auth"
	"todoapp/internal/model"
	"todoapp/internal/policy"
)

// TaskInput carries the caller-editable fields of a task.
type TaskInput struct {
	Title       string
	Description string
	Priority    int
	Complete    bool
}

// TaskService manages tasks on behalf of an identity. Every call is routed
// through the access policy.
type TaskService interface {
	List(ctx context.Context, identity auth.Identity) ([]model.Task, error)
	ListAll(ctx context.Context, identity auth.Identity) ([]model.Task, error)
	Get(ctx context.Context, identity auth.Identity, taskID uint) (*model.Task, error)
	Create(ctx context.Context, identity auth.Identity, input TaskInput) (*model.Task, error)
	Update(ctx context.Context, identity auth.Identity, taskID uint, input TaskInput) (*model.Task, error)
	Delete(ctx context.Context, identity auth.Identity, taskID uint) error
}

type taskService struct {
	policy *policy.Policy
}

// NewTaskService creates a task service over p.
func NewTaskService(p *policy.Policy) TaskService {
	return &taskService{policy: p}
}

func (s *taskService) List(ctx context.Context, identity auth.Identity) ([]model.Task, error) {
	return s.policy.ListOwned(ctx, identity)
}

func (s *taskService) ListAll(ctx context.Context, identity auth.Identity) ([]model.Task, error) {
	return s.policy.ListAll(ctx, identity)
}

func (s *taskService) Get(ctx context.Context, identity auth.Identity, taskID uint) (*model.Task, error) {
	return s.policy.ResolveOwned(ctx, identity, taskID)
}

func (s *taskService) Create(ctx context.Context, identity auth.Identity, input TaskInput) (*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	task := &model.Task{}
	input.applyTo(task)
	if err := s.policy.CreateOwned(ctx, identity, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, identity auth.Identity, taskID uint, input TaskInput) (*model.Task, error) {
	return s.policy.UpdateOwned(ctx, identity, taskID, input.applyTo)
}

func (s *taskService) Delete(ctx context.Context, identity auth.Identity, taskID uint) error {
	return s.policy.DeleteOwned(ctx, identity, taskID)
}

func (in TaskInput) applyTo(task *model.Task) {
	task.Title = in.Title
	task.Description = in.Description
	task.Priority = in.Priority
	task.Complete = in.Complete
}
