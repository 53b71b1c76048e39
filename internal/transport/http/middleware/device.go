package middleware

import (
	"context"
	"net/http"

	"github.com/go-todo-auth/internal/domain"
)

// RequiredHeaders lists the headers RequireDeviceHeaders checks, in the
// spelling reported back to clients.
var RequiredHeaders = []string{"Content-Type", "Device-Name", "Device-UUID"}

type missingHeadersResponse struct {
	Message         string   `json:"message"`
	RequiredHeaders []string `json:"required_headers"`
}

// RequireDeviceHeaders rejects requests lacking Content-Type, Device-Name or
// Device-UUID and stores the declared device in the request context.
func RequireDeviceHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range RequiredHeaders {
			if r.Header.Get(h) == "" {
				writeJSON(w, http.StatusBadRequest, missingHeadersResponse{
					Message:         "Missing required headers",
					RequiredHeaders: RequiredHeaders,
				})
				return
			}
		}
		device := domain.Device{
			Name: r.Header.Get("Device-Name"),
			UUID: r.Header.Get("Device-UUID"),
		}
		ctx := context.WithValue(r.Context(), DeviceKey, device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceFromContext returns the device declared in the request headers.
func DeviceFromContext(ctx context.Context) (domain.Device, bool) {
	d, ok := ctx.Value(DeviceKey).(domain.Device)
	return d, ok
}
