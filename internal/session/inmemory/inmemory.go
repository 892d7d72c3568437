package inmemory

import (
	"context"
	"sync"

	"github.com/careflow/hospital-chatbot/internal/session"
)

// Store keeps per-session histories in a process-wide map. Known growth
// path: sessions are never evicted by age, only their messages are bounded.
type Store struct {
	mu       sync.Mutex
	limit    int
	sessions map[string][]session.Message
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = session.DefaultHistoryLimit
	}
	return &Store{limit: limit, sessions: make(map[string][]session.Message)}
}

func (s *Store) GetOrCreate(ctx context.Context, id string, reset bool) ([]session.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist, ok := s.sessions[id]
	if reset || !ok {
		s.sessions[id] = nil
		return nil, nil
	}
	out := make([]session.Message, len(hist))
	copy(out, hist)
	return out, nil
}

func (s *Store) Append(ctx context.Context, id string, msgs ...session.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := append(s.sessions[id], msgs...)
	if len(hist) > s.limit {
		hist = hist[len(hist)-s.limit:]
	}
	s.sessions[id] = hist
	return nil
}

// Len reports the current message count for a session.
func (s *Store) Len(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[id])
}
