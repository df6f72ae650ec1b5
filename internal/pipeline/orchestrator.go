package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rapidbounce/postfactory/config"
	"github.com/rapidbounce/postfactory/internal/session"
	"github.com/rapidbounce/postfactory/internal/session/session_models"
	"github.com/rapidbounce/postfactory/internal/telemetry"
)

// Orchestrator runs the four stages strictly in order against one shared
// state tied to one session. Multiple runs may execute concurrently, bounded
// by a semaphore; stages within a run never overlap.
type Orchestrator struct {
	logger    *log.Logger
	tele      *telemetry.Telemetry
	store     session.Store
	stages    []Stage
	semaphore chan struct{}
}

// RunResult carries the normalized posts plus the session id the run was
// recorded under, for later inspection.
type RunResult struct {
	SessionID string `json:"session_id"`
	Posts     []Post `json:"posts"`
}

// NewOrchestrator wires the stage sequence from configuration and tools.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, tele *telemetry.Telemetry, store session.Store, tools Tools) *Orchestrator {
	maxRuns := cfg.General.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 1
	}
	return &Orchestrator{
		logger: logger,
		tele:   tele,
		store:  store,
		stages: []Stage{
			&scrapeStage{scraper: tools.Scraper, logger: logger},
			&enrichStage{searcher: tools.Searcher, results: cfg.Tools.Search.Results, tele: tele, logger: logger},
			&visionStage{analyzer: tools.Analyzer, tagCache: tools.TagCache, parallelism: cfg.Tools.Vision.Parallelism, tele: tele, logger: logger},
			&copyStage{llm: tools.LLM, logger: logger},
		},
		semaphore: make(chan struct{}, maxRuns),
	}
}

// Run executes one pipeline run. On failure the returned error is a
// *PipelineError naming the failing stage; whatever state was written stays
// in the session, but no partial post list is ever returned.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (RunResult, error) {
	select {
	case o.semaphore <- struct{}{}:
		defer func() { <-o.semaphore }()
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	}

	// Always a fresh session: reusing one across unrelated hotels would bleed
	// state between runs.
	sid, err := o.store.CreateSession(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("create session: %w", err)
	}
	result := RunResult{SessionID: sid}

	o.logger.Printf("run %s started for %q", sid, input.ListingURL)
	o.recordEvent(ctx, sid, session.NewEvent("", session_models.KindRunStarted, input))

	state := State{}
	for _, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := time.Now()
		out, err := stage.Execute(ctx, input, state)
		o.tele.ObserveStage(stage.Name(), time.Since(start))
		if err != nil {
			o.failRun(ctx, sid, stage.Name(), err)
			return result, &PipelineError{Stage: stage.Name(), Err: err}
		}

		// a cancellation observed mid-stage must not produce further writes
		if err := ctx.Err(); err != nil {
			return result, err
		}

		state[stage.OutputKey()] = out
		if err := o.store.MutateState(ctx, sid, stage.OutputKey(), out); err != nil {
			// persistence is for audit; the in-run state stays authoritative
			o.logger.Printf("run %s: persisting %s failed: %v", sid, stage.OutputKey(), err)
		}
		o.recordEvent(ctx, sid, session.NewEvent(stage.Name(), session_models.KindStateWrite, map[string]any{"key": stage.OutputKey()}))
	}

	posts, err := Normalize(state[KeyFinalPosts])
	if err != nil {
		o.failRun(ctx, sid, "normalize", err)
		return result, &PipelineError{Stage: "normalize", Err: err}
	}

	booking, _ := state[KeyBookingData].(BookingData)
	analyzed, _ := state[KeyAnalyzedImages].([]AnalyzedImage)
	result.Posts = reconcile(posts, analyzed, booking.HotelName)

	o.recordEvent(ctx, sid, session.NewEvent("", session_models.KindRunFinished, map[string]any{"posts": len(result.Posts)}))
	o.tele.RecordRun("success")
	o.logger.Printf("run %s finished: %d posts", sid, len(result.Posts))
	return result, nil
}

func (o *Orchestrator) failRun(ctx context.Context, sid, stage string, err error) {
	o.tele.RecordRun("failure")
	o.logger.Printf("run %s failed at %s: %v", sid, stage, err)
	o.recordEvent(ctx, sid, session.NewEvent(stage, session_models.KindStageError, map[string]any{"error": err.Error()}))
}

func (o *Orchestrator) recordEvent(ctx context.Context, sid string, ev session_models.Event) {
	if err := o.store.AppendEvent(ctx, sid, ev); err != nil {
		o.logger.Printf("run %s: recording %s event failed: %v", sid, ev.Kind, err)
	}
}
