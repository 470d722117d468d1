package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-api-auth/internal/domain"
	jwtinfra "github.com/go-api-auth/internal/infrastructure/jwt"
	"golang.org/x/crypto/bcrypt"
)

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	GetProfileSummary(ctx context.Context, userID int64) (*domain.ProfileSummary, error)
}

type tokenIssuer interface {
	Sign(userID int64) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Username     string
	Profile      *domain.ProfileSummary
}

type RefreshResult struct {
	AccessToken string
	Username    string
	Profile     *domain.ProfileSummary
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	// Refresh mints a new access token. The refresh token itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	// Authorize verifies an access token and returns the user id it binds.
	Authorize(ctx context.Context, accessToken string) (int64, error)
}

// ServiceDeps holds the collaborators for the session service.
// Access and Refresh must be keyed by different secrets.
type ServiceDeps struct {
	Users   userStore
	Access  tokenIssuer
	Refresh tokenIssuer
}

type service struct {
	users   userStore
	access  tokenIssuer
	refresh tokenIssuer
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:   deps.Users,
		access:  deps.Access,
		refresh: deps.Refresh,
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("login: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w: %w", domain.ErrInternal, err)
	}
	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("compare password: %w: %w", domain.ErrInternal, err)
	}

	profile, err := s.profile(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.access.Sign(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w: %w", domain.ErrInternal, err)
	}
	refreshToken, err := s.refresh.Sign(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w: %w", domain.ErrInternal, err)
	}
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Username:     u.Username,
		Profile:      profile,
	}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token: %w", domain.ErrUnauthenticated)
	}
	claims, err := s.refresh.Verify(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user %d no longer exists: %w", claims.UserID, domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w: %w", domain.ErrInternal, err)
	}
	profile, err := s.profile(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.access.Sign(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w: %w", domain.ErrInternal, err)
	}
	return &RefreshResult{AccessToken: accessToken, Username: u.Username, Profile: profile}, nil
}

func (s *service) Authorize(_ context.Context, accessToken string) (int64, error) {
	if accessToken == "" {
		return 0, domain.ErrUnauthenticated
	}
	claims, err := s.access.Verify(accessToken)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return claims.UserID, nil
}

// profile treats a user without a profile row as an integrity failure.
func (s *service) profile(ctx context.Context, userID int64) (*domain.ProfileSummary, error) {
	p, err := s.users.GetProfileSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w: %w", domain.ErrInternal, err)
	}
	return p, nil
}
