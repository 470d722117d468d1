package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-api-auth/internal/domain"
	"github.com/go-api-auth/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIssueCode_OK(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("IssueCode", mock.Anything, "a@b.com").Return("1234567890", nil)
	m := metrics.New()
	h := NewVerificationHandler(svc, m)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/code", bytes.NewBufferString(`{"email":"a@b.com"}`))
	rr := httptest.NewRecorder()
	h.IssueCode(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp CodeEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, CodeEnvelope{Email: "a@b.com", Code: "1234567890"}, resp)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthOutcomes.WithLabelValues(metrics.OpIssueCode, "success")))
	svc.AssertExpectations(t)
}

func TestIssueCode_InvalidBody(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/code", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.IssueCode(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "IssueCode", mock.Anything, mock.Anything)
}

func TestIssueCode_InvalidEmail(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("IssueCode", mock.Anything, "nope").Return("", domain.ErrInvalidInput)
	h := NewVerificationHandler(svc, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/code", bytes.NewBufferString(`{"email":"nope"}`))
	rr := httptest.NewRecorder()
	h.IssueCode(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerify_Outcomes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"verified", nil, http.StatusOK},
		{"missing fields", domain.ErrInvalidInput, http.StatusBadRequest},
		{"expired", domain.ErrCodeNotFound, http.StatusNotFound},
		{"mismatch", domain.ErrCodeMismatch, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := domain.VerifyCodeRequest{Email: "a@b.com", Code: "1234567890"}
			svc := &mockVerificationSvc{}
			svc.On("VerifyCode", mock.Anything, req).Return(tc.err)
			h := NewVerificationHandler(svc, nil)

			body, _ := json.Marshal(req)
			r := httptest.NewRequest(http.MethodPost, "/api/auth/verify", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			h.Verify(rr, r)

			assert.Equal(t, tc.status, rr.Code)
			if tc.err == nil {
				assert.JSONEq(t, `{"verified":true}`, rr.Body.String())
			}
		})
	}
}
