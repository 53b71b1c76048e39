package http

import (
	"context"
	"time"

	"github.com/go-todo-auth/internal/application/otp"
	"github.com/go-todo-auth/internal/application/token"
	"github.com/go-todo-auth/internal/domain"
	jwtinfra "github.com/go-todo-auth/internal/infrastructure/jwt"
	"github.com/go-todo-auth/internal/infrastructure/smtp"
	"github.com/go-todo-auth/internal/infrastructure/sns"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Exists(ctx context.Context, username, email, mobile string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userUID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TodoRepository is the minimal interface the router requires from a todo store.
type TodoRepository interface {
	Put(ctx context.Context, t *domain.Todo) error
	Get(ctx context.Context, todoUID string) (*domain.Todo, error)
	ListByUser(ctx context.Context, userUID string) ([]domain.Todo, error)
	Update(ctx context.Context, todoUID string, updates map[string]interface{}) error
	Delete(ctx context.Context, todoUID string) error
}

// PasswordHasher hashes new passwords and checks presented ones.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	OTPRepo     otp.Store
	TokenRepo   token.Store
	TodoRepo    TodoRepository
	Hasher      PasswordHasher
	JWTProvider *jwtinfra.Provider
	// Mailer and SMSSender may be nil; OTP delivery is then skipped.
	Mailer    smtp.Mailer
	SMSSender sns.SMSSender
	// Now defaults to time.Now.
	Now func() time.Time
}
