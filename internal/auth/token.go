package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims: subject (user id), device session id,
// and device platform, alongside the registered expiry/issued-at claims.
type Claims struct {
	SessionID      string `json:"session_id"`
	DevicePlatform string `json:"device_platform,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim as the numeric user identifier.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject claim: %w", err)
	}
	return id, nil
}

// DeviceSessionID parses the session_id claim.
func (c *Claims) DeviceSessionID() (int64, error) {
	id, err := strconv.ParseInt(c.SessionID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse session_id claim: %w", err)
	}
	return id, nil
}

// TokenService mints and decodes signed, time-limited bearer tokens.
// Expiry is absolute; there is no refresh or rotation.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a token service signing with HS256.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Mint creates a signed token embedding the user id, device session id, and
// device platform, expiring ttl from now.
func (s *TokenService) Mint(userID, sessionID int64, devicePlatform string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID:      strconv.FormatInt(sessionID, 10),
		DevicePlatform: devicePlatform,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Decode verifies the signature and expiry and returns the claims. Fails with
// ErrTokenExpired and ErrTokenInvalid as distinct conditions; callers treat
// both as unauthorized but may log them differently.
func (s *TokenService) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
