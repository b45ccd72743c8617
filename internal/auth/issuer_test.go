package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures deliveries and asserts the code was recorded in
// the store before delivery.
type recordingSender struct {
	store *OTPStore
	sent  []string
	fail  error
}

func (s *recordingSender) Send(ctx context.Context, countryCode, mobile, code, purpose string) error {
	if s.fail != nil {
		return s.fail
	}
	if s.store != nil {
		id := Identity{CountryCode: countryCode, Mobile: mobile}
		if stored, ok := s.store.Lookup(id); !ok || stored != code {
			return errors.New("code not recorded before delivery")
		}
	}
	s.sent = append(s.sent, code)
	return nil
}

func TestIssuer_IssueGeneratesFixedWidthCode(t *testing.T) {
	store, _ := newTestStore(t, 10*time.Minute, 3)
	sender := &recordingSender{store: store}
	issuer := NewIssuer(store, sender, 5*time.Minute, 6)

	issued, err := issuer.Issue(context.Background(), testIdentity, "login")
	require.NoError(t, err)

	assert.Len(t, issued.Code, 6, "code must keep its fixed width, leading zeros included")
	for _, c := range issued.Code {
		assert.True(t, c >= '0' && c <= '9', "code must be numeric, got %q", issued.Code)
	}
	assert.Equal(t, 5*time.Minute, issued.TTL)

	// The returned code is the recorded one
	stored, ok := store.Lookup(testIdentity)
	require.True(t, ok)
	assert.Equal(t, issued.Code, stored)
	assert.Equal(t, []string{issued.Code}, sender.sent)
}

func TestIssuer_RateLimited(t *testing.T) {
	store, _ := newTestStore(t, 10*time.Minute, 3)
	issuer := NewIssuer(store, &recordingSender{store: store}, 5*time.Minute, 6)

	for i := 0; i < 3; i++ {
		_, err := issuer.Issue(context.Background(), testIdentity, "login")
		require.NoError(t, err, "issue %d within quota must succeed", i+1)
	}

	_, err := issuer.Issue(context.Background(), testIdentity, "login")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 0, rateLimited.Remaining)
}

func TestIssuer_WindowResetRestoresCapacity(t *testing.T) {
	store, current := newTestStore(t, 10*time.Minute, 1)
	issuer := NewIssuer(store, &recordingSender{store: store}, 5*time.Minute, 6)

	_, err := issuer.Issue(context.Background(), testIdentity, "login")
	require.NoError(t, err)
	_, err = issuer.Issue(context.Background(), testIdentity, "login")
	assert.ErrorIs(t, err, ErrRateLimited)

	*current = current.Add(10 * time.Minute)
	_, err = issuer.Issue(context.Background(), testIdentity, "login")
	assert.NoError(t, err)
}

func TestIssuer_DeliveryFailureSurfaces(t *testing.T) {
	store, _ := newTestStore(t, 10*time.Minute, 3)
	sender := &recordingSender{fail: errors.New("gateway down")}
	issuer := NewIssuer(store, sender, 5*time.Minute, 6)

	_, err := issuer.Issue(context.Background(), testIdentity, "login")
	assert.Error(t, err)
}

func TestGenerateCode_Width(t *testing.T) {
	for _, digits := range []int{4, 6, 8} {
		for i := 0; i < 50; i++ {
			code, err := generateCode(digits)
			require.NoError(t, err)
			assert.Len(t, code, digits)
		}
	}
}
