package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/shopgrid/server/internal/model"
	"github.com/shopgrid/server/internal/repo"
)

// DeviceInfo carries the client-supplied device fields (unvalidated) plus the
// request metadata captured at the transport boundary.
type DeviceInfo struct {
	DeviceID       string
	DevicePlatform string
	DeviceDetails  string
	IPAddress      string
	UserAgent      string
}

// Grant is the result of a successful verification: the user's profile
// snapshot plus the minted access token.
type Grant struct {
	User        model.User
	SessionID   int64
	AccessToken string
	TokenType   string
	ExpiresIn   int
}

// Service validates submitted OTP codes, provisions users, creates device
// sessions, and issues access tokens.
type Service struct {
	store      *OTPStore
	tokens     *TokenService
	users      repo.UserRepo
	sessions   repo.DeviceSessionRepo
	sessionTTL time.Duration
}

// NewService creates a verification & session service.
func NewService(
	store *OTPStore,
	tokens *TokenService,
	users repo.UserRepo,
	sessions repo.DeviceSessionRepo,
	sessionTTL time.Duration,
) *Service {
	return &Service{
		store:      store,
		tokens:     tokens,
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// Verify checks the submitted code against the pending one for the identity.
// On match the code is consumed (single use), the user is resolved by mobile
// number (created if absent), a device session is created, and an access
// token embedding user id, session id, and device platform is minted.
// Fails with ErrOTPNotFound or ErrOTPMismatch; a mismatch leaves the pending
// code in place. There is no attempt limit on verification itself; only
// issuance is rate limited.
func (s *Service) Verify(ctx context.Context, id Identity, submitted string, device DeviceInfo) (*Grant, error) {
	if err := s.store.ConsumeIfMatch(id, submitted); err != nil {
		return nil, err
	}

	// The create-vs-reuse decision lives in the repo's find-or-create; a
	// new user starts with no name or email.
	user, err := s.users.FindOrCreateByMobile(ctx, id.Mobile)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	sessionKey, err := NewSessionKey()
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}

	platform := device.DevicePlatform
	if platform == "" {
		platform = "unknown"
	}

	expiresAt := time.Now().Add(s.sessionTTL)
	session, err := s.sessions.Create(ctx, model.DeviceSession{
		UserID:         user.ID,
		SessionKey:     sessionKey,
		DeviceID:       optional(device.DeviceID),
		DevicePlatform: &platform,
		DeviceDetails:  optional(device.DeviceDetails),
		IPAddress:      optional(device.IPAddress),
		UserAgent:      optional(device.UserAgent),
		ExpiresAt:      &expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create device session: %w", err)
	}

	token, err := s.tokens.Mint(user.ID, session.ID, platform, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	return &Grant{
		User:        user,
		SessionID:   session.ID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.sessionTTL.Seconds()),
	}, nil
}

// Logout deactivates the device session referenced by a decoded token. The
// token itself stays valid until its expiry claim; resource-owner checks may
// consult the session's active flag.
func (s *Service) Logout(ctx context.Context, sessionID int64) error {
	if err := s.sessions.Deactivate(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
