// Package session keeps per-user state: the generated Q&A list and the
// running chat transcript. Lifetime is the process lifetime; nothing is
// persisted.
package session

import (
	"errors"
	"sync"

	"docqna/internal/models"
)

// ErrNotFound is returned for a user that never uploaded a document.
var ErrNotFound = errors.New("user session not found")

// Session is one user's state.
type Session struct {
	QnA  []models.QnAPair  `json:"qna"`
	Chat []models.ChatTurn `json:"chat"`
}

// Store is the session registry contract.
type Store interface {
	// Put sets or replaces the user's Q&A list and resets the transcript.
	Put(userID string, qna []models.QnAPair)
	// AppendTurn appends a turn to the user's transcript.
	AppendTurn(userID string, turn models.ChatTurn) error
	// Get returns a copy of the user's session.
	Get(userID string) (Session, error)
}

// MemoryStore is an in-memory Store guarded by a read-write lock.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Put(userID string, qna []models.QnAPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &Session{QnA: qna}
}

func (s *MemoryStore) AppendTurn(userID string, turn models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return ErrNotFound
	}
	sess.Chat = append(sess.Chat, turn)
	return nil
}

func (s *MemoryStore) Get(userID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, ErrNotFound
	}
	// copy so callers never share the underlying slices
	out := Session{
		QnA:  make([]models.QnAPair, len(sess.QnA)),
		Chat: make([]models.ChatTurn, len(sess.Chat)),
	}
	copy(out.QnA, sess.QnA)
	copy(out.Chat, sess.Chat)
	return out, nil
}
