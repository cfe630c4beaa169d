package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"todoapp/internal/auth"
	apperrors "todoapp/internal/errors"
	"todoapp/internal/model"
	"todoapp/internal/repository"
	"todoapp/internal/repository/repositorytest"
)

var (
	alice = auth.Identity{ID: 1, Username: "alice", Role: model.RoleUser}
	bob   = auth.Identity{ID: 2, Username: "bob", Role: model.RoleUser}
	root  = auth.Identity{ID: 3, Username: "root", Role: model.RoleAdmin}
)

func newTask(title string) *model.Task {
	return &model.Task{Title: title, Description: "something to do", Priority: 3}
}

func TestScopeToOwner(t *testing.T) {
	q := ScopeToOwner(alice, Query{TaskID: 9, OwnerID: bob.ID})
	assert.Equal(t, Query{TaskID: 9, OwnerID: alice.ID}, q)
}

func TestAuthorizeAdmin(t *testing.T) {
	assert.NoError(t, AuthorizeAdmin(root))
	assert.ErrorIs(t, AuthorizeAdmin(alice), apperrors.ErrForbidden)
	assert.ErrorIs(t, AuthorizeAdmin(auth.Identity{ID: 4, Role: "superuser"}), apperrors.ErrForbidden)
}

func TestPolicy_CreateOwnedForcesOwner(t *testing.T) {
	p := New(repositorytest.NewTasks())
	ctx := context.Background()

	task := newTask("groceries")
	task.OwnerID = bob.ID
	task.ID = 42
	require.NoError(t, p.CreateOwned(ctx, alice, task))

	assert.Equal(t, alice.ID, task.OwnerID)
	assert.NotEqual(t, uint(42), task.ID)
}

func TestPolicy_OwnerIsolation(t *testing.T) {
	p := New(repositorytest.NewTasks())
	ctx := context.Background()

	aliceTask := newTask("groceries")
	require.NoError(t, p.CreateOwned(ctx, alice, aliceTask))
	bobTask := newTask("laundry")
	require.NoError(t, p.CreateOwned(ctx, bob, bobTask))

	t.Run("list returns only own tasks", func(t *testing.T) {
		tasks, err := p.ListOwned(ctx, alice)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "groceries", tasks[0].Title)
	})

	t.Run("foreign task reads as not found", func(t *testing.T) {
		_, err := p.ResolveOwned(ctx, alice, bobTask.ID)
		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

		_, err = p.ResolveOwned(ctx, alice, 999)
		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

		_, err = p.ResolveOwned(ctx, alice, 0)
		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	})

	t.Run("foreign task cannot be updated", func(t *testing.T) {
		_, err := p.UpdateOwned(ctx, alice, bobTask.ID, func(task *model.Task) {
			task.Title = "hijacked"
		})
		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

		got, err := p.ResolveOwned(ctx, bob, bobTask.ID)
		require.NoError(t, err)
		assert.Equal(t, "laundry", got.Title)
	})

	t.Run("foreign task cannot be deleted", func(t *testing.T) {
		err := p.DeleteOwned(ctx, alice, bobTask.ID)
		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)

		_, err = p.ResolveOwned(ctx, bob, bobTask.ID)
		assert.NoError(t, err)
	})
}

func TestPolicy_UpdateOwned(t *testing.T) {
	p := New(repositorytest.NewTasks())
	ctx := context.Background()

	task := newTask("groceries")
	require.NoError(t, p.CreateOwned(ctx, alice, task))

	updated, err := p.UpdateOwned(ctx, alice, task.ID, func(task *model.Task) {
		task.Title = "shopping"
		task.Complete = true
		task.OwnerID = bob.ID
		task.ID = 77
	})
	require.NoError(t, err)
	assert.Equal(t, "shopping", updated.Title)
	assert.True(t, updated.Complete)
	assert.Equal(t, alice.ID, updated.OwnerID)
	assert.Equal(t, task.ID, updated.ID)

	tasks, err := p.ListOwned(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPolicy_DeleteOwned(t *testing.T) {
	store := repositorytest.NewTasks()
	p := New(store)
	ctx := context.Background()

	task := newTask("groceries")
	require.NoError(t, p.CreateOwned(ctx, alice, task))
	require.NoError(t, p.DeleteOwned(ctx, alice, task.ID))

	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, p.DeleteOwned(ctx, alice, task.ID), apperrors.ErrTaskNotFound)
}

func TestPolicy_ListAll(t *testing.T) {
	p := New(repositorytest.NewTasks())
	ctx := context.Background()

	require.NoError(t, p.CreateOwned(ctx, alice, newTask("groceries")))
	require.NoError(t, p.CreateOwned(ctx, bob, newTask("laundry")))

	_, err := p.ListAll(ctx, alice)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	tasks, err := p.ListAll(ctx, root)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

// MockTaskRepository is a mock implementation of TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, task *model.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) FindOwned(ctx context.Context, id, ownerID uint) (*model.Task, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) FindAll(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.TaskRepository) error) error {
	m.Called(ctx)
	return fn(ctx, m)
}

func TestPolicy_StoreFailures(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset")

	t.Run("resolve keeps store errors distinct from not found", func(t *testing.T) {
		m := new(MockTaskRepository)
		m.On("FindOwned", mock.Anything, uint(5), alice.ID).Return(nil, storeErr)

		_, err := New(m).ResolveOwned(ctx, alice, 5)
		assert.ErrorIs(t, err, storeErr)
		assert.NotErrorIs(t, err, apperrors.ErrTaskNotFound)
		m.AssertExpectations(t)
	})

	t.Run("list is queried with the caller as owner", func(t *testing.T) {
		m := new(MockTaskRepository)
		m.On("FindByOwner", mock.Anything, bob.ID).Return(nil, storeErr)

		_, err := New(m).ListOwned(ctx, bob)
		assert.ErrorIs(t, err, storeErr)
		m.AssertExpectations(t)
	})

	t.Run("non admin never reaches the store", func(t *testing.T) {
		m := new(MockTaskRepository)

		_, err := New(m).ListAll(ctx, bob)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		m.AssertNotCalled(t, "FindAll", mock.Anything)
	})

	t.Run("failed update is reported", func(t *testing.T) {
		m := new(MockTaskRepository)
		m.On("WithTransaction", mock.Anything).Return()
		m.On("FindOwned", mock.Anything, uint(5), alice.ID).
			Return(&model.Task{ID: 5, OwnerID: alice.ID, Title: "groceries"}, nil)
		m.On("Update", mock.Anything, mock.AnythingOfType("*model.Task")).Return(storeErr)

		_, err := New(m).UpdateOwned(ctx, alice, 5, func(task *model.Task) { task.Complete = true })
		assert.ErrorIs(t, err, storeErr)
		m.AssertExpectations(t)
	})
}
