package jwtinfra

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-api-auth/internal/config"
	"github.com/go-api-auth/internal/pkg/id"
	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrTokenType is returned when a well-signed token was minted for the other trust domain.
var ErrTokenType = errors.New("unexpected token type")

// Claims holds the JWT payload fields.
type Claims struct {
	UserID int64  `json:"id"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs of a single type with its own secret.
type Provider struct {
	secret    []byte
	tokenType string
	ttl       time.Duration
	now       func() time.Time
}

func NewProvider(secret, tokenType string, ttl time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, fmt.Errorf("%s token secret is empty", tokenType)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%s token ttl must be positive", tokenType)
	}
	return &Provider{secret: []byte(secret), tokenType: tokenType, ttl: ttl, now: time.Now}, nil
}

// NewAccessProvider builds the short-lived access token provider.
func NewAccessProvider(cfg *config.Config) (*Provider, error) {
	return NewProvider(cfg.AccessTokenSecret, TypeAccess, cfg.AccessTokenTTL)
}

// NewRefreshProvider builds the refresh token provider, keyed by a separate secret.
func NewRefreshProvider(cfg *config.Config) (*Provider, error) {
	return NewProvider(cfg.RefreshTokenSecret, TypeRefresh, cfg.RefreshTokenTTL)
}

func (p *Provider) TTL() time.Duration { return p.ttl }

func (p *Provider) Sign(userID int64) (string, error) {
	now := p.now()
	claims := Claims{
		UserID: userID,
		Type:   p.tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.New(),
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != p.tokenType {
		return nil, ErrTokenType
	}
	return claims, nil
}
