package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-todo-auth/internal/domain"
	"github.com/go-todo-auth/internal/pkg/validate"
	"go.uber.org/zap"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
}

// httpError maps a service error to a response. Domain errors carry their own
// client-facing text; anything else is logged and reported as a bare 500.
func httpError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var ve *validate.Error
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ValidationEnvelope{Message: "Validation failed", Errors: ve.Fields})
		return
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			writeMessage(w, s.status, publicMessage(err, s.err))
			return
		}
	}
	log.Error("internal error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

// publicMessage strips the sentinel suffix from err and capitalises the rest,
// so "user not found: not found" becomes "User not found".
func publicMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == sentinel.Error() || msg == "" {
		return http.StatusText(statusFor(sentinel))
	}
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

func statusFor(sentinel error) int {
	for _, s := range statusBySentinel {
		if s.err == sentinel {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
