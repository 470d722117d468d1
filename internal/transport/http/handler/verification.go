package handler

import (
	"net/http"

	"github.com/go-api-auth/internal/application/verification"
	"github.com/go-api-auth/internal/domain"
	"github.com/go-api-auth/internal/metrics"
)

// VerificationHandler handles e-mail verification code endpoints.
type VerificationHandler struct {
	svc     verification.Service
	metrics *metrics.Metrics
}

func NewVerificationHandler(svc verification.Service, m *metrics.Metrics) *VerificationHandler {
	return &VerificationHandler{svc: svc, metrics: m}
}

func (h *VerificationHandler) IssueCode(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.IssueCode(r.Context(), req.Email)
	h.metrics.ObserveAuth(metrics.OpIssueCode, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CodeEnvelope{Email: req.Email, Code: c})
}

func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.svc.VerifyCode(r.Context(), req)
	h.metrics.ObserveAuth(metrics.OpVerifyCode, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifiedEnvelope{Verified: true})
}
