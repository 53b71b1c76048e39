package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-todo-auth/internal/domain"
	"github.com/go-todo-auth/internal/pkg/password"
)

var mobileE164 = regexp.MustCompile(`^\+\d{10,15}$`)

// v is the package-level singleton validator. Custom tags are registered in
// init() before the first call to Struct.
var v = validator.New(validator.WithRequiredStructEnabled())

func init() {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("mobile_e164", func(fl validator.FieldLevel) bool {
		return mobileE164.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
		return password.CheckPolicy(fl.Field().String()) == nil
	})
}

// Error carries per-field messages. It unwraps to domain.ErrBadRequest.
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	var msgs []string
	for field, fm := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, strings.Join(fm, ", ")))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() error { return domain.ErrBadRequest }

// Struct validates the given struct using its validate tags.
// Returns *Error listing a readable message per failing field, or nil.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &Error{Fields: make(map[string][]string, len(ve))}
	for _, fe := range ve {
		out.Fields[fe.Field()] = append(out.Fields[fe.Field()], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s must be alphanumeric", fe.Field())
	case "alpha":
		return fmt.Sprintf("%s must contain only letters", fe.Field())
	case "email":
		return "Invalid email address"
	case "mobile_e164":
		return "Mobile number must be in international format (e.g., +919876543210)"
	case "oneof":
		return fmt.Sprintf("Invalid %s value", fe.Field())
	case "password_policy":
		if err := password.CheckPolicy(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	}
	return fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag())
}
