package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"catgallery/pkg/domain"
)

// MemorySessionStore keeps sessions in-process (single instance only).
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domain.Session)}
}

func (s *MemorySessionStore) NewID() string {
	return uuid.NewString()
}

func (s *MemorySessionStore) Save(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sess.ID]; ok {
		sess.UserID = existing.UserID
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, sid string) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	return sess, ok, nil
}

func (s *MemorySessionStore) Touch(_ context.Context, sid string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sid]; ok {
		sess.Expires = expires
		s.sessions[sid] = sess
	}
	return nil
}

func (s *MemorySessionStore) LinkUser(_ context.Context, sid string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		return ErrNotFound
	}
	sess.UserID = &userID
	s.sessions[sid] = sess
	return nil
}

func (s *MemorySessionStore) Destroy(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}

func (s *MemorySessionStore) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for sid, sess := range s.sessions {
		if sess.UserID != nil && *sess.UserID == userID {
			delete(s.sessions, sid)
			n++
		}
	}
	return n, nil
}

func (s *MemorySessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for sid, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, sid)
			n++
		}
	}
	return n, nil
}
