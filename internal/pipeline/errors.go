package pipeline

import (
	"errors"
	"fmt"
)

// Fatal error categories. Non-fatal failures (enrichment, per-image vision)
// degrade in place and never surface here.
var (
	// ErrNoListingData: the scraper produced no description or zero images.
	ErrNoListingData = errors.New("no usable listing data")
	// ErrEmptyGeneration: the copywriting model call failed or returned nothing.
	ErrEmptyGeneration = errors.New("copywriting produced no output")
	// ErrNoRecoverablePosts: the raw copywriting output held no post data at all.
	ErrNoRecoverablePosts = errors.New("no recoverable post data")
)

// PipelineError identifies which stage aborted a run and why. Partial state
// stays in the session for diagnosis; no partial result reaches the caller.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
