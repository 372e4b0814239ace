package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-service/internal/domain"
)

// AuditRepository is the append-only sink for user status transitions.
// There are no update or delete operations on purpose.
type AuditRepository interface {
	Append(ctx context.Context, tx pgx.Tx, audit *domain.UserStatusAudit) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.UserStatusAudit, error)
}

type auditRepo struct {
	db *pgxpool.Pool
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(db *pgxpool.Pool) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, tx pgx.Tx, audit *domain.UserStatusAudit) error {
	query := `
		INSERT INTO user_status_audit (user_id, old_status, new_status, reason, changed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := tx.QueryRow(ctx, query,
		audit.UserID, audit.OldStatus, audit.NewStatus, audit.Reason, audit.ChangedAt,
	).Scan(&audit.ID)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.UserStatusAudit, error) {
	query := `
		SELECT id, user_id, old_status, new_status, reason, changed_at
		FROM user_status_audit
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records for user %d: %w", userID, err)
	}
	defer rows.Close()

	var audits []*domain.UserStatusAudit
	for rows.Next() {
		var a domain.UserStatusAudit
		if err := rows.Scan(&a.ID, &a.UserID, &a.OldStatus, &a.NewStatus, &a.Reason, &a.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		audits = append(audits, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return audits, nil
}
