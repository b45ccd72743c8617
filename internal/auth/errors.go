package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrOTPNotFound covers both "never issued" and "expired".
	ErrOTPNotFound = errors.New("otp not found or expired")
	// ErrOTPMismatch means a pending code exists but the submitted one differs.
	// The pending code is retained so the caller may retry within its TTL.
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrRateLimited is the sentinel wrapped by RateLimitedError.
	ErrRateLimited = errors.New("otp request limit reached")
	// ErrTokenExpired means the token signature was valid but the expiry claim elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid means the token could not be parsed or its signature failed.
	ErrTokenInvalid = errors.New("token invalid")
)

// RateLimitedError reports how much issuance quota remains in the current window.
type RateLimitedError struct {
	Remaining int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("otp request limit reached, remaining: %d", e.Remaining)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }
