package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-api-auth/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// Transactor opens registration units of work on the pool.
type Transactor struct {
	pool poolIface
}

func NewTransactor(pool poolIface) *Transactor {
	return &Transactor{pool: pool}
}

// WithinTx runs fn inside a read-committed transaction. It commits when fn
// returns nil and rolls back on error or panic. The transaction is always
// resolved before WithinTx returns, even if ctx was cancelled.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.UserTx) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.Warn("transaction rollback failed", "error", rbErr)
		}
	}()

	if err := fn(ctx, &userTx{tx: tx}); err != nil {
		return err
	}

	// A failed commit leaves the transaction closed, so no rollback follows.
	finished = true
	if err := tx.Commit(ctx); err != nil {
		return mapWriteErr(err, "commit")
	}
	return nil
}

type userTx struct {
	tx pgx.Tx
}

func (u *userTx) EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := u.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`, email, username).
		Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_QUERY_FAILED").With("operation", "exists").Wrap(err)
	}
	return exists, nil
}

func (u *userTx) CreateUser(ctx context.Context, user *domain.User) (int64, error) {
	var id int64
	err := u.tx.QueryRow(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		user.Email, user.Username, user.PasswordHash).
		Scan(&id)
	if err != nil {
		return 0, mapWriteErr(err, "users")
	}
	user.ID = id
	return id, nil
}

func (u *userTx) CreateProfile(ctx context.Context, p *domain.UserProfile) error {
	_, err := u.tx.Exec(ctx,
		`INSERT INTO user_profile (user_id, display_name, birth_date, avatar_url) VALUES ($1, $2, $3, $4)`,
		p.UserID, p.DisplayName, p.BirthDate, p.AvatarURL)
	if err != nil {
		return mapWriteErr(err, "user_profile")
	}
	return nil
}

func (u *userTx) CreatePreferences(ctx context.Context, p *domain.UserPreferences) error {
	_, err := u.tx.Exec(ctx,
		`INSERT INTO user_preferences (user_id, created_at, confirmed_at) VALUES ($1, $2, $3)`,
		p.UserID, p.CreatedAt, p.ConfirmedAt)
	if err != nil {
		return mapWriteErr(err, "user_preferences")
	}
	return nil
}

// mapWriteErr turns unique violations into domain.ErrConflict and annotates everything else.
func mapWriteErr(err error, target string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return oops.Code("USER_CONFLICT").
			With("target", target).
			With("constraint", pgErr.ConstraintName).
			Wrap(fmt.Errorf("%w: %w", domain.ErrConflict, err))
	}
	return oops.Code("USER_WRITE_FAILED").With("target", target).Wrap(err)
}
