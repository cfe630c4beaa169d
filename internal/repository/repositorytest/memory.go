// Package repositorytest provides in-memory repositories for tests. They
// report the same errors as the GORM repositories: gorm.ErrRecordNotFound for
// missing rows and gorm.ErrDuplicatedKey for a taken username.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"todoapp/internal/model"
	"todoapp/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]model.User
}

// NewUsers creates an empty user store.
func NewUsers() *Users {
	return &Users{rows: make(map[uint]model.User)}
}

var _ repository.UserRepository = (*Users)(nil)

func (s *Users) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.rows {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.rows[user.ID] = *user
	return nil
}

func (s *Users) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return s.update(id, func(u *model.User) { u.HashedPassword = hashedPassword })
}

func (s *Users) UpdatePhoneNumber(ctx context.Context, id uint, phoneNumber string) error {
	return s.update(id, func(u *model.User) { u.PhoneNumber = &phoneNumber })
}

func (s *Users) UpdateRole(ctx context.Context, id uint, role model.Role) error {
	return s.update(id, func(u *model.User) { u.Role = role })
}

// update applies set to the stored row only, like a single-column UPDATE.
func (s *Users) update(id uint, set func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.rows[id]
	if !ok {
		return nil
	}
	set(&u)
	u.UpdatedAt = time.Now()
	s.rows[id] = u
	return nil
}

func (s *Users) FindByID(ctx context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.rows {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Tasks is an in-memory repository.TaskRepository. WithTransaction runs fn
// against the same store without rollback.
type Tasks struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]model.Task
}

// NewTasks creates an empty task store.
func NewTasks() *Tasks {
	return &Tasks{rows: make(map[uint]model.Task)}
}

var _ repository.TaskRepository = (*Tasks)(nil)

func (s *Tasks) Create(ctx context.Context, task *model.Task) error {
	if task.OwnerID == 0 {
		return repository.ErrMissingOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	task.ID = s.nextID
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	s.rows[task.ID] = *task
	return nil
}

func (s *Tasks) Update(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[task.ID]
	if !ok || stored.OwnerID != task.OwnerID {
		return nil
	}
	task.UpdatedAt = time.Now()
	s.rows[task.ID] = *task
	return nil
}

func (s *Tasks) Delete(ctx context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.rows[task.ID]; ok && stored.OwnerID == task.OwnerID {
		delete(s.rows, task.ID)
	}
	return nil
}

func (s *Tasks) FindOwned(ctx context.Context, id, ownerID uint) (*model.Task, error) {
	if ownerID == 0 {
		return nil, repository.ErrMissingOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.rows[id]
	if !ok || t.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (s *Tasks) FindByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	if ownerID == 0 {
		return nil, repository.ErrMissingOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := []model.Task{}
	for _, t := range s.rows {
		if t.OwnerID == ownerID {
			tasks = append(tasks, t)
		}
	}
	sortByID(tasks)
	return tasks, nil
}

func (s *Tasks) FindAll(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]model.Task, 0, len(s.rows))
	for _, t := range s.rows {
		tasks = append(tasks, t)
	}
	sortByID(tasks)
	return tasks, nil
}

func (s *Tasks) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.TaskRepository) error) error {
	return fn(ctx, s)
}

// Len returns the number of stored tasks.
func (s *Tasks) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func sortByID(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
}
