package data

import (
	"sync"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/repo"
)

// sessionStore is the in-memory session table. Sessions are transient by
// design: a restart abandons all in-flight dialogues.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore creates an empty session table.
func NewSessionStore() repo.SessionStore {
	return &sessionStore{sessions: make(map[string]domain.Session)}
}

func (s *sessionStore) Get(senderID string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[senderID]
	return sess, ok
}

func (s *sessionStore) Set(senderID string, sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[senderID] = sess
}

func (s *sessionStore) Clear(senderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, senderID)
}
