package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-api-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CodeEnvelope is returned after a verification code is issued.
type CodeEnvelope struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifiedEnvelope struct {
	Verified bool `json:"verified"`
}

// UserRef identifies a user without exposing any other field.
type UserRef struct {
	ID int64 `json:"id"`
}

type RegisteredEnvelope struct {
	Message string  `json:"message"`
	User    UserRef `json:"user"`
}

// AuthEnvelope wraps login and refresh responses. The refresh token travels as a cookie.
type AuthEnvelope struct {
	AccessToken string                 `json:"access_token"`
	Username    string                 `json:"username"`
	Info        *domain.ProfileSummary `json:"info,omitempty"`
}

type MeEnvelope struct {
	Message string  `json:"message"`
	User    UserRef `json:"user"`
}

// HealthEnvelope reports per-dependency status.
type HealthEnvelope struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
