package pipeline

import (
	"context"
	"time"
)

// State represents the current state of a pipeline run
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// StepState represents the state of an individual step
type StepState string

const (
	StepStatePending   StepState = "pending"
	StepStateRunning   StepState = "running"
	StepStateCompleted StepState = "completed"
	StepStateFailed    StepState = "failed"
	StepStateSkipped   StepState = "skipped"
)

// RunID uniquely identifies a pipeline run
type RunID string

// StepID uniquely identifies a step within a pipeline
type StepID string

// Data holds the shared data flowing through a pipeline run
type Data map[string]interface{}

// Step represents a single step in a pipeline. Execute mutates the shared
// data in place; returning an error aborts the remaining steps.
type Step interface {
	ID() StepID
	Execute(ctx context.Context, data Data) error
}

// Definition defines the steps and timeout of a pipeline
type Definition interface {
	ID() string
	Steps() []Step
	Timeout() time.Duration
}

// Run represents one execution of a pipeline
type Run struct {
	ID          RunID           `json:"id"`
	Definition  string          `json:"definition"`
	State       State           `json:"state"`
	Data        Data            `json:"data"`
	Steps       []StepExecution `json:"steps"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// StepExecution represents the execution state of a step
type StepExecution struct {
	ID          StepID     `json:"id"`
	State       StepState  `json:"state"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Event represents an event in the pipeline lifecycle
type Event struct {
	RunID     RunID     `json:"run_id"`
	StepID    StepID    `json:"step_id,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Event types
const (
	EventRunStarted    = "run_started"
	EventRunCompleted  = "run_completed"
	EventRunFailed     = "run_failed"
	EventStepStarted   = "step_started"
	EventStepCompleted = "step_completed"
	EventStepFailed    = "step_failed"
)
