package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopgrid/server/internal/model"
)

// AuditRepo defines the interface for activity audit repository operations
type AuditRepo interface {
	Insert(ctx context.Context, entry model.AuditEntry) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.AuditEntry, error)
}

type auditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a new AuditRepo instance
func NewAuditRepo(db *sql.DB) AuditRepo {
	return &auditRepo{db: db}
}

// Insert records one audit entry.
func (r *auditRepo) Insert(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_entries (user_id, action, entity_type, entity_id, cart_item_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.CartItemID,
		entry.Details,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByUser returns the user's audit entries, newest first.
func (r *auditRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, entity_type, entity_id, cart_item_id, details, created_at
		FROM audit_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.CartItemID,
			&e.Details,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
