package domain

import "time"

type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
	TodoCancelled  TodoStatus = "cancelled"
)

type Todo struct {
	TodoUID     string     `json:"uid" dynamodbav:"todo_uid"`
	UserUID     string     `json:"user_uid" dynamodbav:"user_uid"`
	Task        string     `json:"task" dynamodbav:"task"`
	Description string     `json:"description" dynamodbav:"description"`
	Status      TodoStatus `json:"status" dynamodbav:"status"`
	CreatedAt   time.Time  `json:"created_at" dynamodbav:"created_at"`
	ModifiedAt  time.Time  `json:"modified_at" dynamodbav:"modified_at"`
}

type CreateTodoRequest struct {
	Task        string     `json:"task" validate:"required,min=1,max=500"`
	Description string     `json:"description" validate:"max=500"`
	Status      TodoStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

type UpdateTodoRequest struct {
	Task   *string     `json:"task" validate:"omitempty,min=1,max=500"`
	Status *TodoStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

// ListTodosQuery is decoded from the query string of GET /todo/.
type ListTodosQuery struct {
	Page    int        `json:"page" validate:"min=1"`
	PerPage int        `json:"per_page" validate:"min=1,max=100"`
	Status  TodoStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Search  string     `json:"search" validate:"max=100"`
}

// TodoPage is one page of a filtered todo listing.
type TodoPage struct {
	Todos   []Todo
	Page    int
	PerPage int
	Total   int
	Pages   int
}
