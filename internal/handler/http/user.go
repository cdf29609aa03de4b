package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oakrobotics/scoutbase/internal/avatar"
	"github.com/oakrobotics/scoutbase/internal/service"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
	"github.com/oakrobotics/scoutbase/pkg/httputil"
	"github.com/oakrobotics/scoutbase/pkg/middleware"
	"github.com/oakrobotics/scoutbase/pkg/validator"
)

// maxUploadBytes bounds the in-memory part of a profile update upload.
const maxUploadBytes = 8 << 20

// UserHandler handles the member directory and account self-management.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// Me handles GET /me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /me. The body is multipart form data with optional
// username, password, firstName and lastName fields plus an optional avatar
// file part.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidFormData(), h.logger)
		return
	}

	in := service.UpdateProfileInput{
		Username:  formValue(r, "username"),
		Password:  formValue(r, "password"),
		FirstName: formValue(r, "firstName"),
		LastName:  formValue(r, "lastName"),
	}

	if file, _, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		in.Avatar = file
	} else if err != http.ErrMissingFile {
		httputil.WriteError(w, r, apperrors.InvalidFormData(), h.logger)
		return
	}

	if err := validator.Validate(in); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err), h.logger)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.users.UpdateMe(r.Context(), userID, in); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteMe handles DELETE /me.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteMe(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Avatar handles GET /avatar/{userId}. The optional size query parameter
// selects the served edge length in pixels.
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	size := avatar.MaxSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < avatar.MinSize || parsed > avatar.MaxSize {
			httputil.WriteError(w, r, apperrors.InvalidInput(
				fmt.Errorf("size must be an integer between %d and %d", avatar.MinSize, avatar.MaxSize)), h.logger)
			return
		}
		size = parsed
	}

	rc, err := h.users.Avatar(r.Context(), userID, size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func formValue(r *http.Request, name string) *string {
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
