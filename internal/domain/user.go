package domain

import (
	"context"
	"time"
)

// DefaultAvatarURL is assigned to every new profile.
const DefaultAvatarURL = "/img/icon.png"

// User is the identity row. ID is assigned by the credential store.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// UserProfile is created in the same unit of work as its User.
type UserProfile struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	BirthDate   time.Time `json:"birth_date"`
	AvatarURL   string    `json:"avatar_url"`
}

// UserPreferences is created in the same unit of work as its User.
type UserPreferences struct {
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// ProfileSummary is the public view of a user returned after login and refresh.
type ProfileSummary struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// UserTx is the write surface available inside a registration unit of work.
// Every call runs on the same open transaction; the transaction is owned by
// whoever handed out the UserTx.
type UserTx interface {
	EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error)
	CreateUser(ctx context.Context, u *User) (int64, error)
	CreateProfile(ctx context.Context, p *UserProfile) error
	CreatePreferences(ctx context.Context, p *UserPreferences) error
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
	Username    string `json:"username" validate:"required"`
	BirthDate   string `json:"birth_date" validate:"required"` // expected format: YYYY-MM-DD
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
