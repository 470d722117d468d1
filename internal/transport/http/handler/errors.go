package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-api-auth/internal/domain"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const internalMessage = "internal server error"

// statusFor maps a service error onto an HTTP status and a message that is safe to return.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInternal):
		return http.StatusInternalServerError, internalMessage
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound.Error()
	case errors.Is(err, domain.ErrCodeMismatch):
		return http.StatusUnauthorized, domain.ErrCodeMismatch.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusConflict, "Not Found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, msg)
}
