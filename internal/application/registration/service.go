package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-api-auth/internal/domain"
	"github.com/go-api-auth/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the fixed work factor for password hashes.
const BcryptCost = 10

// bcrypt ignores input past this many bytes.
const maxPasswordBytes = 72

const birthDateLayout = "2006-01-02"

// Transactor runs fn inside a single unit of work, committing only if fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.UserTx) error) error
}

type codeDeleter interface {
	Delete(ctx context.Context, email string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (int64, error)
}

// ServiceDeps holds the collaborators for the registration service.
// Codes and Events are optional.
type ServiceDeps struct {
	Tx         Transactor
	Codes      codeDeleter
	Events     eventPublisher
	BcryptCost int
	Now        func() time.Time
}

type service struct {
	tx     Transactor
	codes  codeDeleter
	events eventPublisher
	cost   int
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		tx:     deps.Tx,
		codes:  deps.Codes,
		events: deps.Events,
		cost:   deps.BcryptCost,
		now:    deps.Now,
	}
	if s.cost == 0 {
		s.cost = BcryptCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (int64, error) {
	if err := validate.Struct(req); err != nil {
		return 0, fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidInput)
	}
	if len(req.Password) > maxPasswordBytes {
		return 0, fmt.Errorf("password must be at most %d bytes (UTF-8 encoded): %w", maxPasswordBytes, domain.ErrInvalidInput)
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return 0, fmt.Errorf("birth_date must be YYYY-MM-DD: %w", domain.ErrInvalidInput)
	}

	// Hashing happens before the transaction opens so no connection is held during it.
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w: %w", domain.ErrInternal, err)
	}

	now := s.now().UTC()
	var userID int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx domain.UserTx) error {
		exists, err := tx.EmailOrUsernameExists(ctx, req.Email, req.Username)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrConflict
		}
		id, err := tx.CreateUser(ctx, &domain.User{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: string(hash),
		})
		if err != nil {
			return err
		}
		if err := tx.CreateProfile(ctx, &domain.UserProfile{
			UserID:      id,
			DisplayName: req.DisplayName,
			BirthDate:   birthDate,
			AvatarURL:   domain.DefaultAvatarURL,
		}); err != nil {
			return err
		}
		if err := tx.CreatePreferences(ctx, &domain.UserPreferences{
			UserID:      id,
			CreatedAt:   now,
			ConfirmedAt: now,
		}); err != nil {
			return err
		}
		userID = id
		return nil
	})
	if errors.Is(err, domain.ErrConflict) {
		return 0, fmt.Errorf("email or username already exists: %w", domain.ErrConflict)
	}
	if err != nil {
		return 0, fmt.Errorf("register: %w: %w", domain.ErrInternal, err)
	}

	s.afterCommit(ctx, req.Email, userID)
	return userID, nil
}

// afterCommit runs best-effort follow-ups; failures are logged only.
func (s *service) afterCommit(ctx context.Context, email string, userID int64) {
	if s.codes != nil {
		if err := s.codes.Delete(ctx, email); err != nil {
			slog.Warn("verification code cleanup failed", "user_id", userID, "email", email, "error", err)
		}
	}
	if s.events != nil {
		e := domain.Event{Type: domain.EventUserRegistered, Email: email, UserID: userID, OccurredAt: s.now().UTC()}
		if err := s.events.Publish(ctx, e); err != nil {
			slog.Warn("event publish failed", "type", e.Type, "user_id", userID, "error", err)
		}
	}
}

func parseBirthDate(v string) (time.Time, error) {
	if t, err := time.Parse(birthDateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
