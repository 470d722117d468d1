package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-api-auth/internal/domain"
	jwtinfra "github.com/go-api-auth/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetProfileSummary(ctx context.Context, userID int64) (*domain.ProfileSummary, error) {
	args := m.Called(ctx, userID)
	if p, _ := args.Get(0).(*domain.ProfileSummary); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

type fixture struct {
	users   *mockUserStore
	access  *jwtinfra.Provider
	refresh *jwtinfra.Provider
	svc     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	access, err := jwtinfra.NewProvider("access-secret", jwtinfra.TypeAccess, 15*time.Minute)
	require.NoError(t, err)
	refresh, err := jwtinfra.NewProvider("refresh-secret", jwtinfra.TypeRefresh, 7*24*time.Hour)
	require.NoError(t, err)
	users := &mockUserStore{}
	return &fixture{
		users:   users,
		access:  access,
		refresh: refresh,
		svc:     NewService(ServiceDeps{Users: users, Access: access, Refresh: refresh}),
	}
}

func alice(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{ID: 1, Email: "a@b.com", Username: "alice", PasswordHash: string(hash)}
}

var aliceProfile = &domain.ProfileSummary{ID: 1, Username: "alice", DisplayName: "Alice", AvatarURL: "/img/icon.png"}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(alice(t), nil)
	f.users.On("GetProfileSummary", mock.Anything, int64(1)).Return(aliceProfile, nil)

	res, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, aliceProfile, res.Profile)

	uid, err := f.svc.Authorize(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)

	claims, err := f.refresh.Verify(res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(alice(t), nil)

	res, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Nil(t, res)
	f.users.AssertNotCalled(t, "GetProfileSummary", mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "x@b.com").Return(nil, domain.ErrNotFound)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "x@b.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestLogin_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, errors.New("connection refused"))

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestLogin_CorruptHashIsInternal(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "a@b.com").
		Return(&domain.User{ID: 1, Username: "alice", PasswordHash: "not-a-bcrypt-hash"}, nil)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

// --- Refresh ---

func TestRefresh_RepeatedUseSucceeds(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByID", mock.Anything, int64(1)).Return(alice(t), nil)
	f.users.On("GetProfileSummary", mock.Anything, int64(1)).Return(aliceProfile, nil)

	token, err := f.refresh.Sign(1)
	require.NoError(t, err)

	for range 3 {
		res, err := f.svc.Refresh(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "alice", res.Username)
		uid, err := f.svc.Authorize(context.Background(), res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(1), uid)
	}
}

func TestRefresh_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRefresh_SignedWithAccessSecret(t *testing.T) {
	f := newFixture(t)
	forged, err := jwtinfra.NewProvider("access-secret", jwtinfra.TypeRefresh, time.Hour)
	require.NoError(t, err)
	token, err := forged.Sign(1)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	f := newFixture(t)
	token, err := f.access.Sign(1)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefresh_Malformed(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefresh_DeletedUser(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByID", mock.Anything, int64(1)).Return(nil, domain.ErrNotFound)
	token, err := f.refresh.Sign(1)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// --- Authorize ---

func TestAuthorize_RejectsRefreshToken(t *testing.T) {
	f := newFixture(t)
	token, err := f.refresh.Sign(1)
	require.NoError(t, err)

	_, err = f.svc.Authorize(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthorize_Empty(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Authorize(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
