package handler

import (
	"net/http"

	"github.com/go-api-auth/internal/application/registration"
	"github.com/go-api-auth/internal/domain"
	"github.com/go-api-auth/internal/metrics"
)

type RegistrationHandler struct {
	svc     registration.Service
	metrics *metrics.Metrics
}

func NewRegistrationHandler(svc registration.Service, m *metrics.Metrics) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, metrics: m}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := h.svc.Register(r.Context(), req)
	h.metrics.ObserveAuth(metrics.OpRegister, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisteredEnvelope{Message: "User registered", User: UserRef{ID: userID}})
}
