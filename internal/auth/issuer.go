package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/shopgrid/server/internal/sms"
)

// Issuer rate-limits and generates one-time passwords, binding each to a
// mobile identity via the OTP store.
type Issuer struct {
	store  *OTPStore
	sender sms.Sender
	ttl    time.Duration
	digits int
}

// Issued is the result of a successful issuance.
type Issued struct {
	Code string
	TTL  time.Duration
}

// NewIssuer creates an issuance service.
func NewIssuer(store *OTPStore, sender sms.Sender, ttl time.Duration, digits int) *Issuer {
	return &Issuer{
		store:  store,
		sender: sender,
		ttl:    ttl,
		digits: digits,
	}
}

// Issue generates a fixed-width numeric code for the identity and records it
// before returning, so there is no observable state where a code exists but is
// unrecorded. Fails with a RateLimitedError when the identity's issuance quota
// for the current window is exhausted.
func (i *Issuer) Issue(ctx context.Context, id Identity, purpose string) (Issued, error) {
	if !i.store.CanIssue(id) {
		return Issued{}, &RateLimitedError{Remaining: i.store.RemainingQuota(id)}
	}

	code, err := generateCode(i.digits)
	if err != nil {
		return Issued{}, fmt.Errorf("generate otp code: %w", err)
	}

	i.store.RecordIssuance(id, code, purpose, i.ttl)

	if err := i.sender.Send(ctx, id.CountryCode, id.Mobile, code, purpose); err != nil {
		return Issued{}, fmt.Errorf("deliver otp: %w", err)
	}

	return Issued{Code: code, TTL: i.ttl}, nil
}

// generateCode returns a uniformly random numeric code with exactly the given
// digit count, leading zeros preserved.
func generateCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
