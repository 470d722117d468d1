package jwtinfra

import (
	"testing"
	"time"

	"github.com/go-api-auth/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair(t *testing.T) (*Provider, *Provider) {
	t.Helper()
	cfg := &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
	}
	access, err := NewAccessProvider(cfg)
	require.NoError(t, err)
	refresh, err := NewRefreshProvider(cfg)
	require.NoError(t, err)
	return access, refresh
}

func TestNewProvider_RejectsEmptySecret(t *testing.T) {
	_, err := NewProvider("", TypeAccess, time.Minute)
	assert.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	access, _ := newPair(t)

	signed, err := access.Sign(42)
	require.NoError(t, err)

	claims, err := access.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSign_UniqueTokenIDs(t *testing.T) {
	access, _ := newPair(t)
	a, err := access.Sign(1)
	require.NoError(t, err)
	b, err := access.Sign(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_CrossSecretRejected(t *testing.T) {
	access, refresh := newPair(t)

	accessToken, err := access.Sign(7)
	require.NoError(t, err)
	_, err = refresh.Verify(accessToken)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)

	refreshToken, err := refresh.Sign(7)
	require.NoError(t, err)
	_, err = access.Verify(refreshToken)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestVerify_TypeMismatchWithSharedSecret(t *testing.T) {
	a, err := NewProvider("same", TypeAccess, time.Minute)
	require.NoError(t, err)
	r, err := NewProvider("same", TypeRefresh, time.Minute)
	require.NoError(t, err)

	signed, err := r.Sign(3)
	require.NoError(t, err)
	_, err = a.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenType)
}

func TestVerify_Expired(t *testing.T) {
	access, _ := newPair(t)
	access.now = func() time.Time { return time.Now().Add(-time.Hour) }
	signed, err := access.Sign(9)
	require.NoError(t, err)

	access.now = time.Now
	_, err = access.Verify(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	access, _ := newPair(t)
	claims := Claims{
		UserID: 1,
		Type:   TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = access.Verify(signed)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	access, _ := newPair(t)
	_, err := access.Verify("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}
