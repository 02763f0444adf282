// Package session keeps in-progress wizards keyed by opaque ids. Sessions
// live server-side; clients hold only the id. Abandoned sessions expire via
// TTL, and an LRU bound caps memory under load.
package session

import (
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/wizard"
)

type Session struct {
	ID            string
	TransactionID string
	Wizard        *wizard.Wizard
	CreatedAt     time.Time
}

type Store struct {
	sessions *cache.LRUCache[*Session]
	manager  *cache.Manager
	policy   wizard.Policy
}

// NewStore creates a session store holding at most maxSessions wizards, each
// expiring ttl after its last write.
func NewStore(maxSessions int, ttl time.Duration, policy wizard.Policy) *Store {
	s := &Store{
		sessions: cache.NewLRUCache[*Session](maxSessions, ttl),
		manager:  cache.NewManager(),
		policy:   policy,
	}
	s.manager.Register(s.sessions)
	s.manager.StartCleanup(time.Minute)
	return s
}

// Create opens a new wizard session for the transaction.
func (s *Store) Create(txn core.Transaction, mode wizard.Mode) *Session {
	sess := &Session{
		ID:            uuid.NewString(),
		TransactionID: txn.ID,
		Wizard:        wizard.New(txn, mode, wizard.WithPolicy(s.policy)),
		CreatedAt:     time.Now(),
	}
	s.sessions.Set(sess.ID, sess)
	return sess
}

// Get returns the session if it exists and has not expired.
func (s *Store) Get(id string) (*Session, bool) {
	return s.sessions.Get(id)
}

// Touch refreshes the session's TTL after activity.
func (s *Store) Touch(sess *Session) {
	s.sessions.Set(sess.ID, sess)
}

// Delete removes a session, normally after commit or cancel.
func (s *Store) Delete(id string) {
	s.sessions.Delete(id)
}

// Size returns the number of live sessions.
func (s *Store) Size() int {
	return s.sessions.Size()
}

// Close stops the background expiry sweep.
func (s *Store) Close() {
	s.manager.Stop()
}
