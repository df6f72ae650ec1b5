package session

import (
	"context"
	"log"
	"time"

	"github.com/rapidbounce/postfactory/config"
	"github.com/rapidbounce/postfactory/internal/session/inmemory"
	"github.com/rapidbounce/postfactory/internal/session/session_models"
	"github.com/rapidbounce/postfactory/internal/session/sqlitestore"
)

// Store interface for session management. A session accumulates the state
// written by each pipeline stage plus an append-only event log for audit.
type Store interface {
	CreateSession(ctx context.Context) (string, error)
	GetState(ctx context.Context, id string) (map[string]any, error)
	MutateState(ctx context.Context, id string, key string, value any) error
	AppendEvent(ctx context.Context, id string, ev session_models.Event) error
	Events(ctx context.Context, id string) ([]session_models.Event, error)
}

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = session_models.ErrNotFound

// NewStore selects a session store: the durable sqlite store when it can be
// opened, the in-memory store otherwise. A durable-store init failure is
// logged and never aborts startup; runs proceed with volatile sessions.
func NewStore(cfg config.SessionConfig, logger *log.Logger) Store {
	store, err := sqlitestore.Open(cfg.Path, cfg.MaxEvents)
	if err != nil {
		logger.Printf("durable session store unavailable (%v); falling back to in-memory", err)
		return inmemory.NewStore()
	}
	return store
}

// NewEvent builds an event stamped with the current time.
func NewEvent(stage, kind string, payload any) session_models.Event {
	return session_models.Event{
		Stage:     stage,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
