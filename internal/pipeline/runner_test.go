package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeStep struct {
	id  StepID
	fn  func(ctx context.Context, data Data) error
	ran bool
}

func (s *fakeStep) ID() StepID { return s.id }

func (s *fakeStep) Execute(ctx context.Context, data Data) error {
	s.ran = true
	if s.fn != nil {
		return s.fn(ctx, data)
	}
	return nil
}

type fakeDefinition struct {
	id    string
	steps []Step
}

func (d *fakeDefinition) ID() string             { return d.id }
func (d *fakeDefinition) Steps() []Step          { return d.steps }
func (d *fakeDefinition) Timeout() time.Duration { return 5 * time.Second }

func TestRunCompletesAllSteps(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	first := &fakeStep{id: "first", fn: func(ctx context.Context, data Data) error {
		data["value"] = 1
		return nil
	}}
	second := &fakeStep{id: "second", fn: func(ctx context.Context, data Data) error {
		data["value"] = data["value"].(int) + 1
		return nil
	}}

	def := &fakeDefinition{id: "test", steps: []Step{first, second}}

	run, err := runner.Run(context.Background(), def, Data{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if run.State != StateCompleted {
		t.Errorf("Expected state %s, got %s", StateCompleted, run.State)
	}
	if run.Data["value"] != 2 {
		t.Errorf("Expected data to flow through steps, got %v", run.Data["value"])
	}
	for _, exec := range run.Steps {
		if exec.State != StepStateCompleted {
			t.Errorf("Step %s: expected state %s, got %s", exec.ID, StepStateCompleted, exec.State)
		}
	}
}

func TestRunAbortsOnStepFailure(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	stepErr := errors.New("boom")
	first := &fakeStep{id: "first", fn: func(ctx context.Context, data Data) error {
		return stepErr
	}}
	second := &fakeStep{id: "second"}

	def := &fakeDefinition{id: "test", steps: []Step{first, second}}

	run, err := runner.Run(context.Background(), def, Data{})
	if !errors.Is(err, stepErr) {
		t.Fatalf("Expected step error, got %v", err)
	}

	if run.State != StateFailed {
		t.Errorf("Expected state %s, got %s", StateFailed, run.State)
	}
	if second.ran {
		t.Error("Second step should not run after a failure")
	}
	if run.Steps[0].State != StepStateFailed {
		t.Errorf("Expected first step failed, got %s", run.Steps[0].State)
	}
	if run.Steps[1].State != StepStateSkipped {
		t.Errorf("Expected second step skipped, got %s", run.Steps[1].State)
	}
}

func TestRunIsTracked(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	def := &fakeDefinition{id: "test", steps: []Step{&fakeStep{id: "only"}}}
	run, err := runner.Run(context.Background(), def, Data{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	tracked, exists := runner.GetRun(run.ID)
	if !exists {
		t.Fatal("Expected run to be tracked")
	}
	if tracked.State != StateCompleted {
		t.Errorf("Expected tracked run completed, got %s", tracked.State)
	}
}

func TestRunRetentionIsBounded(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	def := &fakeDefinition{id: "test", steps: []Step{&fakeStep{id: "only"}}}

	var first, last *Run
	for i := 0; i < maxRetainedRuns+10; i++ {
		run, err := runner.Run(context.Background(), def, Data{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if first == nil {
			first = run
		}
		last = run
	}

	runner.mu.Lock()
	retained := len(runner.runs)
	runner.mu.Unlock()
	if retained > maxRetainedRuns {
		t.Errorf("Expected at most %d retained runs, got %d", maxRetainedRuns, retained)
	}

	if _, exists := runner.GetRun(first.ID); exists {
		t.Error("Expected the oldest run to be evicted")
	}
	if _, exists := runner.GetRun(last.ID); !exists {
		t.Error("Expected the newest run to still be tracked")
	}
}

func TestRunEmitsEvents(t *testing.T) {
	runner := NewRunner(zaptest.NewLogger(t))

	def := &fakeDefinition{id: "test", steps: []Step{&fakeStep{id: "only"}}}
	if _, err := runner.Run(context.Background(), def, Data{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expected := []string{EventRunStarted, EventStepStarted, EventStepCompleted, EventRunCompleted}
	for _, want := range expected {
		select {
		case event := <-runner.EventChannel():
			if event.Type != want {
				t.Errorf("Expected event %s, got %s", want, event.Type)
			}
		default:
			t.Fatalf("Missing event %s", want)
		}
	}
}
