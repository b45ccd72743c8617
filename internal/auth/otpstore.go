package auth

import (
	"crypto/subtle"
	"sync"
	"time"
)

// Identity is the (country code, mobile number) pair that scopes OTP and
// rate-limit state.
type Identity struct {
	CountryCode string
	Mobile      string
}

func (id Identity) key() string { return id.CountryCode + ":" + id.Mobile }

type otpEntry struct {
	code      string
	purpose   string
	createdAt time.Time
	expiresAt time.Time
}

type quotaEntry struct {
	count       int
	windowStart time.Time
}

// OTPStore holds pending one-time passwords and per-identity request counters
// in memory, each with expiry. At most one pending code exists per identity;
// a new issuance overwrites the prior one. A single mutex guards both maps so
// every operation is atomic per call, including the read-compare-delete in
// ConsumeIfMatch.
type OTPStore struct {
	mu           sync.Mutex
	codes        map[string]otpEntry
	quotas       map[string]quotaEntry
	window       time.Duration
	maxPerWindow int
	now          func() time.Time
}

// NewOTPStore creates a store enforcing maxPerWindow issuances per identity
// within each fixed window.
func NewOTPStore(window time.Duration, maxPerWindow int) *OTPStore {
	s := &OTPStore{
		codes:        make(map[string]otpEntry),
		quotas:       make(map[string]quotaEntry),
		window:       window,
		maxPerWindow: maxPerWindow,
		now:          time.Now,
	}

	// Evict stale entries periodically to bound memory; expiry is still
	// enforced lazily at read time.
	go s.evict()

	return s
}

// CanIssue reports whether the identity is below its issuance quota for the
// current window. Read-only.
func (s *OTPStore) CanIssue(id Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCount(id) < s.maxPerWindow
}

// RemainingQuota returns max minus the current window's count, floored at 0.
func (s *OTPStore) RemainingQuota(id Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := s.maxPerWindow - s.currentCount(id)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// currentCount returns the request count for the identity's current window,
// treating an elapsed window as empty. Callers must hold s.mu.
func (s *OTPStore) currentCount(id Identity) int {
	q, ok := s.quotas[id.key()]
	if !ok || s.now().Sub(q.windowStart) >= s.window {
		return 0
	}
	return q.count
}

// RecordIssuance overwrites any pending code for the identity, sets its expiry
// to now+ttl, and increments the rate counter. An elapsed window is reset
// before counting.
func (s *OTPStore) RecordIssuance(id Identity, code, purpose string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := id.key()

	s.codes[key] = otpEntry{
		code:      code,
		purpose:   purpose,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}

	q, ok := s.quotas[key]
	if !ok || now.Sub(q.windowStart) >= s.window {
		q = quotaEntry{windowStart: now}
	}
	q.count++
	s.quotas[key] = q
}

// Lookup returns the pending code for the identity, treating an expired entry
// as absent. A read after expiry never returns the stale code.
func (s *OTPStore) Lookup(id Identity) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[id.key()]
	if !ok {
		return "", false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.codes, id.key())
		return "", false
	}
	return entry.code, true
}

// Clear removes the pending code unconditionally.
func (s *OTPStore) Clear(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, id.key())
}

// ConsumeIfMatch compares the submitted code against the pending one and
// deletes it on match, all within one critical section so concurrent verifies
// cannot both succeed off the same code. Returns ErrOTPNotFound when no
// unexpired code exists and ErrOTPMismatch when the codes differ; on mismatch
// the pending code stays in place.
func (s *OTPStore) ConsumeIfMatch(id Identity, submitted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.key()
	entry, ok := s.codes[key]
	if !ok {
		return ErrOTPNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.codes, key)
		return ErrOTPNotFound
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(submitted)) != 1 {
		return ErrOTPMismatch
	}

	delete(s.codes, key)
	return nil
}

// evict periodically removes expired codes and stale quota windows.
func (s *OTPStore) evict() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := s.now()
		for key, entry := range s.codes {
			if !now.Before(entry.expiresAt) {
				delete(s.codes, key)
			}
		}
		for key, q := range s.quotas {
			if now.Sub(q.windowStart) >= s.window {
				delete(s.quotas, key)
			}
		}
		s.mu.Unlock()
	}
}
