package handler

import (
	"net/http"

	"github.com/go-api-auth/internal/application/session"
	"github.com/go-api-auth/internal/domain"
	"github.com/go-api-auth/internal/metrics"
	"github.com/go-api-auth/internal/transport/http/middleware"
)

// SessionHandler handles login, refresh, logout and the protected probe.
type SessionHandler struct {
	svc     session.Service
	cookie  CookieOptions
	metrics *metrics.Metrics
}

func NewSessionHandler(svc session.Service, cookie CookieOptions, m *metrics.Metrics) *SessionHandler {
	return &SessionHandler{svc: svc, cookie: cookie, metrics: m}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	h.metrics.ObserveAuth(metrics.OpLogin, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	setRefreshCookie(w, h.cookie, result.RefreshToken)
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken: result.AccessToken,
		Username:    result.Username,
		Info:        result.Profile,
	})
}

// Refresh mints a new access token from the refresh cookie. The cookie is left untouched.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Refresh(r.Context(), refreshCookieValue(r))
	h.metrics.ObserveAuth(metrics.OpRefresh, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken: result.AccessToken,
		Username:    result.Username,
		Info:        result.Profile,
	})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	clearRefreshCookie(w, h.cookie)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "User logout"})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, MeEnvelope{Message: "This is a protected route", User: UserRef{ID: userID}})
}
