package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopgrid/server/internal/model"
)

// DeviceSessionRepo defines the interface for device session repository
// operations. Sessions are deactivated, never deleted.
type DeviceSessionRepo interface {
	Create(ctx context.Context, session model.DeviceSession) (model.DeviceSession, error)
	GetByID(ctx context.Context, id int64) (model.DeviceSession, error)
	Deactivate(ctx context.Context, id int64) error
}

type deviceSessionRepo struct {
	db *sql.DB
}

// NewDeviceSessionRepo creates a new DeviceSessionRepo instance
func NewDeviceSessionRepo(db *sql.DB) DeviceSessionRepo {
	return &deviceSessionRepo{db: db}
}

// Create inserts a new device session row and returns it with the assigned
// id and creation time.
func (r *deviceSessionRepo) Create(ctx context.Context, session model.DeviceSession) (model.DeviceSession, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO device_sessions
			(user_id, session_key, device_id, device_platform, device_details,
			 ip_address, user_agent, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING id, created_at
	`,
		session.UserID,
		session.SessionKey,
		session.DeviceID,
		session.DevicePlatform,
		session.DeviceDetails,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return model.DeviceSession{}, fmt.Errorf("insert device session: %w", err)
	}

	session.IsActive = true
	return session, nil
}

// GetByID retrieves a device session by ID
func (r *deviceSessionRepo) GetByID(ctx context.Context, id int64) (model.DeviceSession, error) {
	var s model.DeviceSession
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_key, device_id, device_platform, device_details,
		       ip_address, user_agent, expires_at, is_active, created_at
		FROM device_sessions
		WHERE id = $1
	`, id).Scan(
		&s.ID,
		&s.UserID,
		&s.SessionKey,
		&s.DeviceID,
		&s.DevicePlatform,
		&s.DeviceDetails,
		&s.IPAddress,
		&s.UserAgent,
		&s.ExpiresAt,
		&s.IsActive,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DeviceSession{}, fmt.Errorf("device session: %w", ErrNotFound)
		}
		return model.DeviceSession{}, fmt.Errorf("query device session: %w", err)
	}
	return s, nil
}

// Deactivate sets is_active = false for the session, keeping the row.
func (r *deviceSessionRepo) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE device_sessions SET is_active = false WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate device session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("device session: %w", ErrNotFound)
	}
	return nil
}
