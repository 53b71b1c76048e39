package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-todo-auth/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ValidationEnvelope lists per-field validation messages.
type ValidationEnvelope struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// UserDTO is the public view of a user. It has no password field.
type UserDTO struct {
	UID           string `json:"uid"`
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	PhoneVerified bool   `json:"phone_verified"`
	EmailVerified bool   `json:"email_verified"`
}

func toUserDTO(u *domain.User) *UserDTO {
	return &UserDTO{
		UID:           u.UserUID,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		PhoneVerified: u.PhoneVerified,
		EmailVerified: u.EmailVerified,
	}
}

// UserEnvelope wraps register and profile responses.
type UserEnvelope struct {
	Message string   `json:"message"`
	User    *UserDTO `json:"user"`
}

// LoginEnvelope wraps login responses.
type LoginEnvelope struct {
	Message      string   `json:"message"`
	User         *UserDTO `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

// RefreshEnvelope wraps refresh responses.
type RefreshEnvelope struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

type TodoDTO struct {
	UID         string `json:"uid"`
	Task        string `json:"task"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toTodoDTO(t *domain.Todo) TodoDTO {
	return TodoDTO{
		UID:         t.TodoUID,
		Task:        t.Task,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.ModifiedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// TodoEnvelope wraps single-todo responses.
type TodoEnvelope struct {
	Message string  `json:"message"`
	Todo    TodoDTO `json:"todo"`
}

type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// TodoListEnvelope wraps paginated todo listings.
type TodoListEnvelope struct {
	Todos      []TodoDTO  `json:"todos"`
	Pagination Pagination `json:"pagination"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}
