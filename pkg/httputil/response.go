package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
	"github.com/oakrobotics/scoutbase/pkg/logger"
)

// ErrorBody is the wire shape of every non-2xx response: a bare machine code.
type ErrorBody struct {
	Code string `json:"code"`
}

// WriteJSON writes a JSON response with the given status code.
// Headers are already sent if encoding fails, so the error is dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteCode writes an error body containing only the machine-readable code.
func WriteCode(w http.ResponseWriter, status int, code string) {
	WriteJSON(w, status, ErrorBody{Code: code})
}

// WriteError maps the error to its HTTP status and wire code and writes the
// standard error body. It prefers the request-scoped logger from context
// (set by the request-logging middleware) over the fallback logger, and
// logs 5xx-class failures with their underlying cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	status := apperrors.HTTPStatus(err)
	code := apperrors.Code(err)

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
	}

	WriteCode(w, status, code)
}
