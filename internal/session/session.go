// Package session keeps the single slot of client-side state that
// survives between requests: the logged-in user. It is written once at
// login, cleared at logout and never persisted anywhere else.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"stockapp/internal/domain"
)

type entry struct {
	user      domain.User
	expiresAt time.Time
}

// Store is an in-memory token-to-user map with a fixed TTL.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]entry
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

// Create starts a session for the user and returns its opaque token.
func (s *Store) Create(user domain.User) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = entry{user: user, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token
}

// Get resolves a token to its user. Expired sessions are dropped lazily.
func (s *Store) Get(token string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return domain.User{}, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, token)
		return domain.User{}, false
	}
	return e.user, true
}

// Delete tears the session down; called at logout.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
