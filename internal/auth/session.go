package auth

import (
	"sync"
	"time"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

// Session is one live back-office login.
type Session struct {
	JTI     string
	Admin   models.AdminUser
	Expires time.Time
}

// SessionStore tracks issued session IDs so sign-out revokes a token before
// its expiry. Tokens unknown to the store are dead regardless of signature.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	clock    func() time.Time
}

// NewSessionStore creates a store issuing sessions with the given TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		clock:    time.Now,
	}
}

// Issue records a session under jti and returns its expiry.
func (s *SessionStore) Issue(jti string, admin models.AdminUser) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires := s.clock().Add(s.ttl)
	s.sessions[jti] = Session{JTI: jti, Admin: admin, Expires: expires}
	return expires
}

// Active returns the admin bound to jti when the session is live.
func (s *SessionStore) Active(jti string) (models.AdminUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	if !ok {
		return models.AdminUser{}, false
	}
	if s.clock().After(sess.Expires) {
		delete(s.sessions, jti)
		return models.AdminUser{}, false
	}
	return sess.Admin, true
}

// Revoke drops a session immediately.
func (s *SessionStore) Revoke(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
}

// Sweep removes expired sessions. Called periodically from main.
func (s *SessionStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for jti, sess := range s.sessions {
		if now.After(sess.Expires) {
			delete(s.sessions, jti)
		}
	}
}
