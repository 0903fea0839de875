// Package pipeline drives ordered, irreversible transaction workflows. A
// pipeline is a fixed list of named steps; a Run executes them strictly
// sequentially, capturing each failure at the step it occurred and allowing
// that step, and only that step, to be retried. Effects of earlier steps are
// never redone and never compensated.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRunActive is returned by Start while the run is already executing.
	// Starting twice is an idempotent re-entry, not a queued second run.
	ErrRunActive = errors.New("pipeline: run already active")

	// ErrRunNotIdle is returned by Start after the run finished or failed.
	ErrRunNotIdle = errors.New("pipeline: start requires an idle run")

	// ErrRunNotFailed is returned by Retry unless the run is in StatusFailed.
	ErrRunNotFailed = errors.New("pipeline: retry requires a failed run")

	// ErrRunCancelled is returned when Cancel stopped the run before its
	// next step. An in-flight external call is never aborted.
	ErrRunCancelled = errors.New("pipeline: run cancelled")
)

// Status is the lifecycle state of a Run.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Mode controls how the run loop treats a step's failure.
type Mode int

const (
	// Required steps halt the run on failure. This is the default.
	Required Mode = iota

	// BestEffort steps log their failure and let the run continue. A
	// platform-fee tip must not abort an otherwise-successful purchase.
	BestEffort
)

// Step is one named stage of a pipeline.
type Step struct {
	Key                string
	Mode               Mode
	FailureTitle       string
	FailureDescription string

	// Skip, when set, is evaluated against the accumulated run context
	// immediately before execution; a true result advances past the step
	// without running its body.
	Skip func(*Context) bool

	// Run performs the step's side effect. Any values it stores in the run
	// context are visible to later steps.
	Run func(ctx context.Context, rc *Context) error
}

// Pipeline is an ordered list of steps executed by a Run.
type Pipeline struct {
	Name  string
	Steps []Step
}

// StepError attributes a failure to the exact step it occurred at, carrying
// that step's declared failure copy for presentation.
type StepError struct {
	Key         string
	Index       int
	Title       string
	Description string
	Err         error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Key, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Snapshot is a read-only view of a run suitable for rendering a progress
// list.
type Snapshot struct {
	RunID     string
	Pipeline  string
	Status    Status
	StepIndex int
	StepKey   string
	LastError *StepError
}

// invoke runs a step body, converting a panic into an error so a throwing
// best-effort step still lets the run reach success.
func invoke(ctx context.Context, step Step, rc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Key, r)
		}
	}()
	return step.Run(ctx, rc)
}

// runID returns a fresh identifier for a run.
func runID() string {
	return uuid.NewString()
}

// nopLogger is the fallback when no logger is configured.
func nopLogger() *zap.Logger {
	return zap.NewNop()
}
