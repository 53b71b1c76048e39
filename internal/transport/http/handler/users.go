package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-todo-auth/internal/application/auth"
	"github.com/go-todo-auth/internal/domain"
	"github.com/go-todo-auth/internal/pkg/validate"
	"github.com/go-todo-auth/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// UserHandler handles the /user endpoints.
type UserHandler struct {
	svc auth.Service
	log *zap.Logger
}

func NewUserHandler(svc auth.Service, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, h.log, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, UserEnvelope{
		Message: "Registered successfully. Please verify the OTP sent to your mobile number.",
		User:    toUserDTO(u),
	})
}

// Login expects RequireDeviceHeaders to have run.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	device, ok := middleware.DeviceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Missing required headers")
		return
	}
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, h.log, err)
		return
	}
	u, pair, err := h.svc.Login(r.Context(), req, device)
	if err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Message:      "Login successful",
		User:         toUserDTO(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh expects RequireDeviceHeaders to have run.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	device, ok := middleware.DeviceFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Missing required headers")
		return
	}
	var req domain.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusBadRequest, "Missing refresh token")
		return
	}
	access, err := h.svc.Refresh(r.Context(), req.RefreshToken, device.UUID)
	if err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshEnvelope{Message: "Access token refreshed", AccessToken: access})
}

func (h *UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.VerifyOTP(r.Context(), req); err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP verified successfully")
}

func (h *UserHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ResendOTP(r.Context(), req); err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP resent successfully")
}

// Profile expects Auth to have run.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	u, err := h.svc.Profile(r.Context(), claims.UserUID())
	if err != nil {
		httpError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "User fetched successfully", User: toUserDTO(u)})
}

// decode reads a JSON body into v. An empty body decodes as {}.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
