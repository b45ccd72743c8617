package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopgrid/server/internal/model"
)

// MemberRepo defines the interface for member repository operations
type MemberRepo interface {
	Create(ctx context.Context, userID int64, name, relation string) (model.Member, error)
	Update(ctx context.Context, id, userID int64, name, relation string) error
	ListByUser(ctx context.Context, userID int64) ([]model.Member, error)
}

type memberRepo struct {
	db *sql.DB
}

// NewMemberRepo creates a new MemberRepo instance
func NewMemberRepo(db *sql.DB) MemberRepo {
	return &memberRepo{db: db}
}

// Create inserts a member owned by the user.
func (r *memberRepo) Create(ctx context.Context, userID int64, name, relation string) (model.Member, error) {
	member := model.Member{UserID: userID, Name: name, Relation: relation}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO members (user_id, name, relation)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, userID, name, relation).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		return model.Member{}, fmt.Errorf("insert member: %w", err)
	}
	return member, nil
}

// Update edits a member, restricted to the owning user. Fails with
// ErrNotFound when the id names no row owned by the user.
func (r *memberRepo) Update(ctx context.Context, id, userID int64, name, relation string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE members SET name = $3, relation = $4
		WHERE id = $1 AND user_id = $2
	`, id, userID, name, relation)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("member: %w", ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's members, oldest first.
func (r *memberRepo) ListByUser(ctx context.Context, userID int64) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, relation, created_at
		FROM members
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]model.Member, 0)
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Relation, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}
