package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

// UserRepository is the persistence boundary for users. Status writes go
// through UpdateStatusTx so the cascade controls them; HardDelete exists only
// for explicit removal requests.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	GetByIDTx(ctx context.Context, tx pgx.Tx, userID int64) (*domain.User, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, userID int64, status domain.UserStatus) error
	HardDelete(ctx context.Context, tx pgx.Tx, userID int64) error
}

type userRepo struct {
	db *pgxpool.Pool
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *pgxpool.Pool) UserRepository {
	return &userRepo{db: db}
}

const userSelect = `
	SELECT id, username, email, phone, status, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, tx pgx.Tx, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := tx.QueryRow(ctx, query,
		user.Username, user.Email, user.Phone, user.Status, now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == "23505" {
			return xerrors.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, userSelect+` WHERE id = $1`, userID))
}

func (r *userRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, userID int64) (*domain.User, error) {
	return scanUser(tx.QueryRow(ctx, userSelect+` WHERE id = $1`, userID))
}

func (r *userRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, userID int64, status domain.UserStatus) error {
	query := `UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`
	tag, err := tx.Exec(ctx, query, status, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update status for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

func (r *userRepo) HardDelete(ctx context.Context, tx pgx.Tx, userID int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}
