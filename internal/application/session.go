// Package application holds the vault's use cases. Services are constructed
// over the driven ports and never touch the database directly; every
// operation that reads or writes sealed data takes the caller's Session.
package application

import (
	"fmt"
	"sync"
	"time"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// DefaultSessionTTL is how long an unlocked session stays usable without
// re-authenticating.
const DefaultSessionTTL = 2 * time.Hour

// Session holds the derived vault key for one authenticated user. The key
// lives only in memory and is wiped on Close or expiry. There are no process
// globals; anything that needs the key is handed the session explicitly.
type Session struct {
	mu        sync.Mutex
	key       []byte
	ttl       time.Duration
	expiresAt time.Time
	closed    bool
}

func newSession(key []byte, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Session{
		key:       key,
		ttl:       ttl,
		expiresAt: time.Now().Add(ttl),
	}
}

// Key returns the session's vault key and slides the expiry window. Expired
// or closed sessions fail with model.ErrAuthentication; the caller must
// authenticate again.
func (s *Session) Key() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session closed: %w", model.ErrAuthentication)
	}
	if time.Now().After(s.expiresAt) {
		s.wipe()
		return nil, fmt.Errorf("session expired: %w", model.ErrAuthentication)
	}

	s.expiresAt = time.Now().Add(s.ttl)
	return s.key, nil
}

// ExpiresAt reports when the session will lapse if left untouched.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Close wipes the key material and marks the session unusable. Safe to call
// more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipe()
}

// replaceKey swaps in a new key after a password rotation, keeping the
// session alive. The old key is wiped.
func (s *Session) replaceKey(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vaultcrypt.Zero(s.key)
	s.key = key
	s.expiresAt = time.Now().Add(s.ttl)
}

func (s *Session) wipe() {
	vaultcrypt.Zero(s.key)
	s.key = nil
	s.closed = true
}
