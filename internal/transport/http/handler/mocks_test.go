package handler

import (
	"context"

	"github.com/go-api-auth/internal/application/session"
	"github.com/go-api-auth/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) IssueCode(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockVerificationSvc) VerifyCode(ctx context.Context, req domain.VerifyCodeRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockRegistrationSvc struct{ mock.Mock }

func (m *mockRegistrationSvc) Register(ctx context.Context, req domain.RegisterRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req domain.LoginRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.LoginResult), args.Error(1)
}

func (m *mockSessionSvc) Refresh(ctx context.Context, token string) (*session.RefreshResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.RefreshResult), args.Error(1)
}

func (m *mockSessionSvc) Authorize(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
