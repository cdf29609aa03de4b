// Package http exposes the REST surface of the scouting backend.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/oakrobotics/scoutbase/internal/service"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
	"github.com/oakrobotics/scoutbase/pkg/httputil"
	"github.com/oakrobotics/scoutbase/pkg/validator"
)

// AuthHandler handles the session lifecycle endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// LoginRequest is the JSON body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=30"`
	Password string `json:"password" validate:"required,min=1,max=50"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err), h.logger)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, pair)
}

// SignUp handles POST /auth/sign-up.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in service.SignUpInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err), h.logger)
		return
	}

	pair, err := h.auth.SignUp(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, pair)
}

// Refresh handles POST /auth/refresh. The body is the refresh token value
// as a bare JSON string.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	value, err := decodeTokenBody(r.Body)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, pair)
}

// Logout handles DELETE /auth/logout. Like Refresh, the body is the refresh
// token value as a bare JSON string.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	value, err := decodeTokenBody(r.Body)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.auth.Logout(r.Context(), value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeTokenBody(body io.Reader) (string, error) {
	var value string
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		return "", apperrors.InvalidInput(err)
	}
	if value == "" {
		return "", apperrors.InvalidInput(errors.New("empty token"))
	}
	return value, nil
}
