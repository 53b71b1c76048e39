package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-todo-auth/internal/application/todo"
	"github.com/go-todo-auth/internal/domain"
	"github.com/go-todo-auth/internal/pkg/validate"
	"github.com/go-todo-auth/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// TodoHandler handles the /todo endpoints. Every route expects Auth and
// RequireDeviceHeaders to have run.
type TodoHandler struct {
	svc todo.Service
	log *zap.Logger
}

func NewTodoHandler(svc todo.Service, log *zap.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, log: log}
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userUID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.CreateTodoRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, h.log, err)
		return
	}
	t, err := h.svc.Create(r.Context(), userUID, req)
	if err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, TodoEnvelope{Message: "Todo created successfully", Todo: toTodoDTO(t)})
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userUID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q, fieldErrs := parseListQuery(r)
	if fieldErrs == nil {
		var ve *validate.Error
		if err := validate.Struct(q); errors.As(err, &ve) {
			fieldErrs = ve.Fields
		}
	}
	if fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, ValidationEnvelope{Message: "Invalid query parameters", Errors: fieldErrs})
		return
	}
	page, err := h.svc.List(r.Context(), userUID, q)
	if err != nil {
		httpError(w, r, h.log, err)
		return
	}
	out := TodoListEnvelope{
		Todos: make([]TodoDTO, 0, len(page.Todos)),
		Pagination: Pagination{
			Page:    page.Page,
			PerPage: page.PerPage,
			Total:   page.Total,
			Pages:   page.Pages,
		},
	}
	for i := range page.Todos {
		out.Todos = append(out.Todos, toTodoDTO(&page.Todos[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userUID, ok := currentUser(w, r)
	if !ok {
		return
	}
	todoUID := r.URL.Query().Get("todo_uid")
	if todoUID == "" {
		writeMessage(w, http.StatusBadRequest, "todo_uid query parameter is required")
		return
	}
	var req domain.UpdateTodoRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, h.log, err)
		return
	}
	t, err := h.svc.Update(r.Context(), userUID, todoUID, req)
	if err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, TodoEnvelope{Message: "Todo updated successfully", Todo: toTodoDTO(t)})
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userUID, ok := currentUser(w, r)
	if !ok {
		return
	}
	todoUID := r.URL.Query().Get("todo_id")
	if todoUID == "" {
		writeMessage(w, http.StatusBadRequest, "todo_id query parameter is required")
		return
	}
	if err := h.svc.Delete(r.Context(), userUID, todoUID); err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Todo deleted successfully")
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return claims.UserUID(), true
}

// parseListQuery reads page, per_page, status and search with their defaults.
func parseListQuery(r *http.Request) (domain.ListTodosQuery, map[string][]string) {
	values := r.URL.Query()
	q := domain.ListTodosQuery{
		Page:    1,
		PerPage: 10,
		Status:  domain.TodoStatus(values.Get("status")),
		Search:  values.Get("search"),
	}
	var errs map[string][]string
	parseInt := func(key string, dst *int) {
		raw := values.Get(key)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			if errs == nil {
				errs = map[string][]string{}
			}
			errs[key] = append(errs[key], "Not a valid integer.")
			return
		}
		*dst = n
	}
	parseInt("page", &q.Page)
	parseInt("per_page", &q.PerPage)
	return q, errs
}
