package session_models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Event kinds recorded by the orchestrator.
const (
	KindRunStarted  = "run_started"
	KindStateWrite  = "state_write"
	KindStageError  = "stage_error"
	KindRunFinished = "run_finished"
)

// Event is one entry in a session's append-only log. Seq is assigned by the
// store on append.
type Event struct {
	Seq       int64     `json:"seq"`
	Stage     string    `json:"stage,omitempty"`
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
