package inmemory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rapidbounce/postfactory/internal/session/session_models"
)

type record struct {
	state   map[string]any
	events  []session_models.Event
	nextSeq int64
}

// Store is the volatile session store. Sessions live for the life of the
// process; unrelated sessions never block each other beyond map access.
type Store struct {
	sessions map[string]*record
	mu       sync.RWMutex
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*record)}
}

func (s *Store) CreateSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.sessions[id] = &record{state: make(map[string]any), nextSeq: 1}
	return id, nil
}

func (s *Store) GetState(ctx context.Context, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, session_models.ErrNotFound
	}
	out := make(map[string]any, len(rec.state))
	for k, v := range rec.state {
		out[k] = v
	}
	return out, nil
}

func (s *Store) MutateState(ctx context.Context, id string, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return session_models.ErrNotFound
	}
	rec.state[key] = value
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, id string, ev session_models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return session_models.ErrNotFound
	}
	ev.Seq = rec.nextSeq
	rec.nextSeq++
	rec.events = append(rec.events, ev)
	return nil
}

func (s *Store) Events(ctx context.Context, id string) ([]session_models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, session_models.ErrNotFound
	}
	out := make([]session_models.Event, len(rec.events))
	copy(out, rec.events)
	return out, nil
}
