package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runs retained for inspection via GetRun; older ones are evicted.
const maxRetainedRuns = 128

// Runner executes pipeline definitions step by step. A failed step aborts
// the run; the remaining steps are marked skipped.
type Runner struct {
	logger    *zap.Logger
	eventChan chan Event
	mu        sync.Mutex
	runs      map[RunID]*Run
	order     []RunID
}

// NewRunner creates a new pipeline runner
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		logger:    logger,
		eventChan: make(chan Event, 100),
		runs:      make(map[RunID]*Run),
	}
}

// Run executes the definition synchronously and returns the finished run.
// The returned error is the error of the step that failed, if any; the run
// record itself is always returned.
func (r *Runner) Run(ctx context.Context, def Definition, data Data) (*Run, error) {
	runID := RunID(fmt.Sprintf("%s_%d", def.ID(), time.Now().UnixNano()))

	steps := def.Steps()
	stepExecs := make([]StepExecution, len(steps))
	for i, step := range steps {
		stepExecs[i] = StepExecution{
			ID:    step.ID(),
			State: StepStatePending,
		}
	}

	run := &Run{
		ID:         runID,
		Definition: def.ID(),
		State:      StateRunning,
		Data:       data,
		Steps:      stepExecs,
		StartedAt:  time.Now(),
	}

	r.mu.Lock()
	r.runs[runID] = run
	r.order = append(r.order, runID)
	if len(r.order) > maxRetainedRuns {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.runs, oldest)
	}
	r.mu.Unlock()

	r.emitEvent(Event{
		RunID:     runID,
		Type:      EventRunStarted,
		Timestamp: run.StartedAt,
	})

	ctx, cancel := context.WithTimeout(ctx, def.Timeout())
	defer cancel()

	var failed error
	for i, step := range steps {
		if failed != nil {
			run.Steps[i].State = StepStateSkipped
			continue
		}
		if err := r.executeStep(ctx, run, i, step); err != nil {
			failed = err
		}
	}

	now := time.Now()
	run.CompletedAt = &now
	if failed != nil {
		run.State = StateFailed
		run.Error = failed.Error()
		r.emitEvent(Event{
			RunID:     runID,
			Type:      EventRunFailed,
			Timestamp: now,
			Detail:    failed.Error(),
		})
		r.logger.Warn("Pipeline run failed",
			zap.String("runID", string(runID)),
			zap.String("definition", def.ID()),
			zap.Error(failed))
	} else {
		run.State = StateCompleted
		r.emitEvent(Event{
			RunID:     runID,
			Type:      EventRunCompleted,
			Timestamp: now,
		})
		r.logger.Info("Pipeline run completed",
			zap.String("runID", string(runID)),
			zap.String("definition", def.ID()))
	}

	return run, failed
}

// GetRun returns a run record by ID
func (r *Runner) GetRun(runID RunID) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, exists := r.runs[runID]
	return run, exists
}

// executeStep executes a single step and records its outcome on the run
func (r *Runner) executeStep(ctx context.Context, run *Run, stepIndex int, step Step) error {
	exec := &run.Steps[stepIndex]
	exec.State = StepStateRunning

	now := time.Now()
	exec.StartedAt = &now

	r.emitEvent(Event{
		RunID:     run.ID,
		StepID:    step.ID(),
		Type:      EventStepStarted,
		Timestamp: now,
	})

	err := step.Execute(ctx, run.Data)

	now = time.Now()
	exec.CompletedAt = &now

	if err != nil {
		exec.State = StepStateFailed
		exec.Error = err.Error()
		r.emitEvent(Event{
			RunID:     run.ID,
			StepID:    step.ID(),
			Type:      EventStepFailed,
			Timestamp: now,
			Detail:    err.Error(),
		})
		return err
	}

	exec.State = StepStateCompleted
	r.emitEvent(Event{
		RunID:     run.ID,
		StepID:    step.ID(),
		Type:      EventStepCompleted,
		Timestamp: now,
	})

	return nil
}

func (r *Runner) emitEvent(event Event) {
	select {
	case r.eventChan <- event:
	default:
		r.logger.Warn("Event channel full, dropping event", zap.String("type", event.Type))
	}
}

// EventChannel returns the event channel for listening to pipeline events
func (r *Runner) EventChannel() <-chan Event {
	return r.eventChan
}
