package session

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/rapidbounce/postfactory/config"
	"github.com/rapidbounce/postfactory/internal/session/inmemory"
	"github.com/rapidbounce/postfactory/internal/session/session_models"
	"github.com/rapidbounce/postfactory/internal/session/sqlitestore"
)

// exerciseStore runs the contract every store implementation must honor.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	id, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}

	state, err := store.GetState(ctx, id)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(state) != 0 {
		t.Fatalf("new session state not empty: %#v", state)
	}

	if err := store.MutateState(ctx, id, "booking_data", map[string]any{"hotel_name": "Hotel Aurora"}); err != nil {
		t.Fatalf("mutate state: %v", err)
	}
	if err := store.MutateState(ctx, id, "website_data", map[string]any{"snippets": []string{}}); err != nil {
		t.Fatalf("mutate state: %v", err)
	}
	state, err = store.GetState(ctx, id)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if _, ok := state["booking_data"]; !ok {
		t.Fatalf("booking_data missing: %#v", state)
	}
	if _, ok := state["website_data"]; !ok {
		t.Fatalf("website_data missing: %#v", state)
	}

	for _, kind := range []string{session_models.KindRunStarted, session_models.KindStateWrite, session_models.KindRunFinished} {
		if err := store.AppendEvent(ctx, id, NewEvent("listing_scrape", kind, map[string]any{"k": "v"})); err != nil {
			t.Fatalf("append %s: %v", kind, err)
		}
	}
	events, err := store.Events(ctx, id)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("want 3 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Seq != int64(i+1) {
			t.Fatalf("event %d has seq %d", i, ev.Seq)
		}
	}

	// a second session never sees the first one's data
	other, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create second session: %v", err)
	}
	state, err = store.GetState(ctx, other)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(state) != 0 {
		t.Fatalf("state bled across sessions: %#v", state)
	}

	for _, op := range []struct {
		name string
		err  error
	}{
		{"GetState", func() error { _, err := store.GetState(ctx, "no-such-session"); return err }()},
		{"MutateState", store.MutateState(ctx, "no-such-session", "k", "v")},
		{"AppendEvent", store.AppendEvent(ctx, "no-such-session", NewEvent("", session_models.KindRunStarted, nil))},
		{"Events", func() error { _, err := store.Events(ctx, "no-such-session"); return err }()},
	} {
		if !errors.Is(op.err, ErrSessionNotFound) {
			t.Fatalf("%s on unknown id: expected ErrSessionNotFound, got %v", op.name, op.err)
		}
	}
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, inmemory.NewStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "sessions.db"), 200)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := sqlitestore.Open(path, 200)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.MutateState(ctx, id, "final_posts", "raw model output"); err != nil {
		t.Fatalf("mutate state: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlitestore.Open(path, 200)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	state, err := reopened.GetState(ctx, id)
	if err != nil {
		t.Fatalf("get state after reopen: %v", err)
	}
	if state["final_posts"] != "raw model output" {
		t.Fatalf("state lost across reopen: %#v", state)
	}
}

func TestNewStoreFallsBackToMemory(t *testing.T) {
	// a regular file where the sessions directory should be makes the durable
	// store unopenable
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	cfg := config.SessionConfig{Path: filepath.Join(blocker, "sessions.db"), MaxEvents: 200}
	store := NewStore(cfg, log.New(io.Discard, "", 0))
	if store == nil {
		t.Fatal("NewStore returned nil")
	}
	if _, ok := store.(*inmemory.Store); !ok {
		t.Fatalf("expected in-memory fallback, got %T", store)
	}
	exerciseStore(t, store)
}

func TestNewStoreUsesDurableWhenPossible(t *testing.T) {
	cfg := config.SessionConfig{Path: filepath.Join(t.TempDir(), "sessions.db"), MaxEvents: 200}
	store := NewStore(cfg, log.New(io.Discard, "", 0))
	durable, ok := store.(*sqlitestore.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer durable.Close()
	exerciseStore(t, store)
}
