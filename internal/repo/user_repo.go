package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopgrid/server/internal/model"
)

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByMobile(ctx context.Context, mobile string) (model.User, error)
	FindOrCreateByMobile(ctx context.Context, mobile string) (model.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email *string) (model.User, error)
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = "id, mobile, name, email, created_at"

func scanUser(row *sql.Row) (model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Mobile, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("user: %w", ErrNotFound)
		}
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by numeric ID
func (r *userRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetByMobile retrieves a user by mobile number
func (r *userRepo) GetByMobile(ctx context.Context, mobile string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE mobile = $1
	`, mobile)
	return scanUser(row)
}

// FindOrCreateByMobile retrieves a user by mobile number or creates one with
// no name/email if it doesn't exist.
func (r *userRepo) FindOrCreateByMobile(ctx context.Context, mobile string) (model.User, error) {
	// Insert first with ON CONFLICT DO NOTHING, then select either way.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (mobile) VALUES ($1)
		ON CONFLICT (mobile) DO NOTHING
	`, mobile)
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return r.GetByMobile(ctx, mobile)
}

// UpdateProfile sets name and/or email, leaving nil fields unchanged, and
// returns the updated row.
func (r *userRepo) UpdateProfile(ctx context.Context, id int64, name, email *string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = COALESCE($2, name), email = COALESCE($3, email)
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, name, email)
	return scanUser(row)
}
