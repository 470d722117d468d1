package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-api-auth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// UserRepo reads identities and profiles from the credential store.
type UserRepo struct {
	pool poolIface
}

func NewUserRepo(pool poolIface) *UserRepo {
	return &UserRepo{pool: pool}
}

// GetByEmail requires exactly one matching row. More than one match is
// reported as not found and logged as an integrity anomaly.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, username, password_hash FROM users WHERE email = $1 LIMIT 2`, email)
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "get by email").Wrap(err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "get by email").Wrap(err)
	}
	if len(users) > 1 {
		slog.Error("multiple users share an email", "count", len(users))
	}
	if len(users) != 1 {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	return &users[0], nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, username, password_hash FROM users WHERE id = $1`, userID)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "get by id").With("user_id", userID).Wrap(err)
	}
	return &u, nil
}

func (r *UserRepo) GetProfileSummary(ctx context.Context, userID int64) (*domain.ProfileSummary, error) {
	var p domain.ProfileSummary
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.username, p.display_name, p.avatar_url
		 FROM users u JOIN user_profile p ON p.user_id = u.id
		 WHERE u.id = $1`, userID).
		Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "get profile").With("user_id", userID).Wrap(err)
	}
	return &p, nil
}

func (r *UserRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash)
	return u, err
}
