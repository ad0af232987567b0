package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/coinview/exchange/internal/auth"
)

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	Auth *auth.Service
	Log  zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(authService *auth.Service, log zerolog.Logger) *Handler {
	return &Handler{Auth: authService, Log: log}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "Exchange API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Signup handles user registration.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error().Err(err).Msg("signup failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeData(w, http.StatusCreated, resp)
}

// Signin handles user login.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Auth.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.Log.Error().Err(err).Msg("signin failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, resp)
}
