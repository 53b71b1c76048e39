package todo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-todo-auth/internal/domain"
	"github.com/go-todo-auth/internal/metrics"
	"github.com/go-todo-auth/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTask       = "task"
	fieldStatus     = "status"
	fieldModifiedAt = "modified_at"
)

var (
	ErrUserNotFound    = fmt.Errorf("user not found: %w", domain.ErrNotFound)
	ErrTodoNotFound    = fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	ErrUpdateForbidden = fmt.Errorf("unauthorized to update this todo: %w", domain.ErrForbidden)
	ErrDeleteForbidden = fmt.Errorf("unauthorized to delete this todo: %w", domain.ErrForbidden)
	ErrEmptyUpdate     = fmt.Errorf("at least one field (task or status) must be provided: %w", domain.ErrBadRequest)
)

type Service interface {
	Create(ctx context.Context, userUID string, req domain.CreateTodoRequest) (*domain.Todo, error)
	List(ctx context.Context, userUID string, q domain.ListTodosQuery) (*domain.TodoPage, error)
	Update(ctx context.Context, userUID, todoUID string, req domain.UpdateTodoRequest) (*domain.Todo, error)
	Delete(ctx context.Context, userUID, todoUID string) error
}

type todoStore interface {
	Put(ctx context.Context, t *domain.Todo) error
	Get(ctx context.Context, todoUID string) (*domain.Todo, error)
	ListByUser(ctx context.Context, userUID string) ([]domain.Todo, error)
	Update(ctx context.Context, todoUID string, updates map[string]interface{}) error
	Delete(ctx context.Context, todoUID string) error
}

type userStore interface {
	Get(ctx context.Context, userUID string) (*domain.User, error)
}

type ServiceDeps struct {
	TodoRepo todoStore
	UserRepo userStore
	Now      func() time.Time
}

type service struct {
	repo  todoStore
	users userStore
	now   func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{repo: deps.TodoRepo, users: deps.UserRepo, now: deps.Now}
}

func (s *service) Create(ctx context.Context, userUID string, req domain.CreateTodoRequest) (*domain.Todo, error) {
	if err := s.requireUser(ctx, userUID); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = domain.TodoPending
	}
	now := s.now().UTC()
	t := &domain.Todo{
		TodoUID:     id.New(),
		UserUID:     userUID,
		Task:        req.Task,
		Description: req.Description,
		Status:      status,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("store todo: %w", err)
	}
	metrics.TodosCreatedTotal.Inc()
	return t, nil
}

// List returns the user's todos newest first, filtered by status and a
// case-insensitive substring of the task.
func (s *service) List(ctx context.Context, userUID string, q domain.ListTodosQuery) (*domain.TodoPage, error) {
	if err := s.requireUser(ctx, userUID); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 10
	}
	all, err := s.repo.ListByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	search := strings.ToLower(q.Search)
	matched := all[:0]
	for _, t := range all {
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Task), search) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := &domain.TodoPage{
		Todos:   []domain.Todo{},
		Page:    q.Page,
		PerPage: q.PerPage,
		Total:   len(matched),
		Pages:   (len(matched) + q.PerPage - 1) / q.PerPage,
	}
	if q.Page <= page.Pages {
		start := (q.Page - 1) * q.PerPage
		end := min(start+q.PerPage, len(matched))
		page.Todos = matched[start:end]
	}
	return page, nil
}

func (s *service) Update(ctx context.Context, userUID, todoUID string, req domain.UpdateTodoRequest) (*domain.Todo, error) {
	if (req.Task == nil || *req.Task == "") && (req.Status == nil || *req.Status == "") {
		return nil, ErrEmptyUpdate
	}
	t, err := s.owned(ctx, userUID, todoUID, ErrUpdateForbidden)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Task != nil && *req.Task != "" {
		t.Task = *req.Task
		updates[fieldTask] = t.Task
	}
	if req.Status != nil && *req.Status != "" {
		t.Status = *req.Status
		updates[fieldStatus] = t.Status
	}
	t.ModifiedAt = s.now().UTC()
	updates[fieldModifiedAt] = t.ModifiedAt

	if err := s.repo.Update(ctx, todoUID, updates); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, userUID, todoUID string) error {
	if _, err := s.owned(ctx, userUID, todoUID, ErrDeleteForbidden); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, todoUID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrTodoNotFound
		}
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// owned loads todoUID and checks it belongs to userUID.
func (s *service) owned(ctx context.Context, userUID, todoUID string, forbidden error) (*domain.Todo, error) {
	if err := s.requireUser(ctx, userUID); err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, todoUID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	if t.UserUID != userUID {
		return nil, forbidden
	}
	return t, nil
}

func (s *service) requireUser(ctx context.Context, userUID string) error {
	_, err := s.users.Get(ctx, userUID)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}
