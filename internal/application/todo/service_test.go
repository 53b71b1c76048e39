package todo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-todo-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockTodoStore struct{ mock.Mock }

func (m *mockTodoStore) Put(ctx context.Context, t *domain.Todo) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTodoStore) Get(ctx context.Context, todoUID string) (*domain.Todo, error) {
	args := m.Called(ctx, todoUID)
	if t, _ := args.Get(0).(*domain.Todo); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTodoStore) ListByUser(ctx context.Context, userUID string) ([]domain.Todo, error) {
	args := m.Called(ctx, userUID)
	todos, _ := args.Get(0).([]domain.Todo)
	return todos, args.Error(1)
}
func (m *mockTodoStore) Update(ctx context.Context, todoUID string, updates map[string]interface{}) error {
	return m.Called(ctx, todoUID, updates).Error(0)
}
func (m *mockTodoStore) Delete(ctx context.Context, todoUID string) error {
	return m.Called(ctx, todoUID).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userUID string) (*domain.User, error) {
	args := m.Called(ctx, userUID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newService(ts *mockTodoStore, us *mockUserStore) Service {
	return NewService(ServiceDeps{TodoRepo: ts, UserRepo: us, Now: func() time.Time { return now }})
}

func knownUser(uid string) *mockUserStore {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, uid).Return(&domain.User{UserUID: uid}, nil)
	return us
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.TodoStatus) *domain.TodoStatus { return &s }

// --- Create ---

func TestCreate_DefaultsToPending(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("Put", mock.Anything, mock.AnythingOfType("*domain.Todo")).Return(nil)

	todo, err := newService(ts, knownUser("u1")).Create(context.Background(), "u1", domain.CreateTodoRequest{Task: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, domain.TodoPending, todo.Status)
	assert.Equal(t, "u1", todo.UserUID)
	assert.NotEmpty(t, todo.TodoUID)
	assert.Equal(t, now, todo.CreatedAt)
}

func TestCreate_UnknownUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := newService(&mockTodoStore{}, us).Create(context.Background(), "ghost", domain.CreateTodoRequest{Task: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- List ---

func seedTodos() []domain.Todo {
	var todos []domain.Todo
	for i := 0; i < 25; i++ {
		status := domain.TodoPending
		if i%5 == 0 {
			status = domain.TodoCompleted
		}
		todos = append(todos, domain.Todo{
			TodoUID:   fmt.Sprintf("t%02d", i),
			UserUID:   "u1",
			Task:      fmt.Sprintf("Task %02d", i),
			Status:    status,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}
	todos[3].Task = "Buy MILK"
	return todos
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("ListByUser", mock.Anything, "u1").Return(seedTodos(), nil)

	page, err := newService(ts, knownUser("u1")).List(context.Background(), "u1", domain.ListTodosQuery{Page: 2, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Todos, 10)
	assert.Equal(t, "t14", page.Todos[0].TodoUID)
	assert.Equal(t, "t05", page.Todos[9].TodoUID)
}

func TestList_PastLastPageIsEmpty(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("ListByUser", mock.Anything, "u1").Return(seedTodos(), nil)

	page, err := newService(ts, knownUser("u1")).List(context.Background(), "u1", domain.ListTodosQuery{Page: 9, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Todos)
	assert.NotNil(t, page.Todos)
	assert.Equal(t, 25, page.Total)
}

func TestList_HugePageDoesNotOverflow(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("ListByUser", mock.Anything, "u1").Return(seedTodos()[:1], nil)

	var page *domain.TodoPage
	require.NotPanics(t, func() {
		var err error
		page, err = newService(ts, knownUser("u1")).List(context.Background(), "u1", domain.ListTodosQuery{Page: 100000000000000000, PerPage: 100})
		require.NoError(t, err)
	})
	assert.NotNil(t, page.Todos)
	assert.Empty(t, page.Todos)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Pages)
}

func TestList_FiltersStatusAndSearch(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("ListByUser", mock.Anything, "u1").Return(seedTodos(), nil)
	svc := newService(ts, knownUser("u1"))

	page, err := svc.List(context.Background(), "u1", domain.ListTodosQuery{Page: 1, PerPage: 10, Status: domain.TodoCompleted})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)

	page, err = svc.List(context.Background(), "u1", domain.ListTodosQuery{Page: 1, PerPage: 10, Search: "milk"})
	require.NoError(t, err)
	require.Len(t, page.Todos, 1)
	assert.Equal(t, "t03", page.Todos[0].TodoUID)
}

// --- Update ---

func TestUpdate_RequiresAField(t *testing.T) {
	_, err := newService(&mockTodoStore{}, &mockUserStore{}).Update(context.Background(), "u1", "t1", domain.UpdateTodoRequest{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_Owner(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Todo{TodoUID: "t1", UserUID: "u1", Task: "old", Status: domain.TodoPending}, nil)
	ts.On("Update", mock.Anything, "t1", map[string]interface{}{
		fieldStatus:     domain.TodoCompleted,
		fieldModifiedAt: now,
	}).Return(nil)

	todo, err := newService(ts, knownUser("u1")).Update(context.Background(), "u1", "t1", domain.UpdateTodoRequest{Status: statusPtr(domain.TodoCompleted)})
	require.NoError(t, err)
	assert.Equal(t, domain.TodoCompleted, todo.Status)
	assert.Equal(t, "old", todo.Task)
	ts.AssertExpectations(t)
}

func TestUpdate_OtherUsersTodo(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Todo{TodoUID: "t1", UserUID: "u2"}, nil)

	_, err := newService(ts, knownUser("u1")).Update(context.Background(), "u1", "t1", domain.UpdateTodoRequest{Task: strPtr("new")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, ErrUpdateForbidden, err)
	ts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_Missing(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("Get", mock.Anything, "t1").Return(nil, domain.ErrNotFound)

	_, err := newService(ts, knownUser("u1")).Update(context.Background(), "u1", "t1", domain.UpdateTodoRequest{Task: strPtr("new")})
	assert.Equal(t, ErrTodoNotFound, err)
}

// --- Delete ---

func TestDelete_Owner(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Todo{TodoUID: "t1", UserUID: "u1"}, nil)
	ts.On("Delete", mock.Anything, "t1").Return(nil)

	assert.NoError(t, newService(ts, knownUser("u1")).Delete(context.Background(), "u1", "t1"))
	ts.AssertExpectations(t)
}

func TestDelete_OtherUsersTodo(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Todo{TodoUID: "t1", UserUID: "u2"}, nil)

	err := newService(ts, knownUser("u1")).Delete(context.Background(), "u1", "t1")
	assert.Equal(t, ErrDeleteForbidden, err)
}

func TestDelete_StoreFailure(t *testing.T) {
	ts := &mockTodoStore{}
	ts.On("Get", mock.Anything, "t1").Return(&domain.Todo{TodoUID: "t1", UserUID: "u1"}, nil)
	ts.On("Delete", mock.Anything, "t1").Return(errors.New("throttled"))

	err := newService(ts, knownUser("u1")).Delete(context.Background(), "u1", "t1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
