package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Run is the mutable execution state of one pipeline instance. The caller
// owns it: Start and Retry block until the run halts, while Cancel and
// Snapshot may be called from any goroutine. Exactly one run should exist per
// logical user action.
type Run struct {
	id       string
	pipeline Pipeline
	log      *zap.Logger

	mu        sync.Mutex
	status    Status
	stepIndex int
	lastErr   *StepError
	cancelled bool
	rc        *Context

	subMu sync.Mutex
	subs  []chan Snapshot
}

// NewRun creates an idle run for the pipeline. A nil logger is replaced with
// a no-op logger.
func NewRun(p Pipeline, log *zap.Logger) *Run {
	if log == nil {
		log = nopLogger()
	}
	return &Run{
		id:       runID(),
		pipeline: p,
		log:      log.With(zap.String("pipeline", p.Name)),
		status:   StatusIdle,
		rc:       NewContext(),
	}
}

// ID returns the run's identifier.
func (r *Run) ID() string {
	return r.id
}

// Context returns the run's accumulated context.
func (r *Run) Context() *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rc
}

// Snapshot returns the current state of the run.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() Snapshot {
	snap := Snapshot{
		RunID:     r.id,
		Pipeline:  r.pipeline.Name,
		Status:    r.status,
		StepIndex: r.stepIndex,
		LastError: r.lastErr,
	}
	if r.stepIndex >= 0 && r.stepIndex < len(r.pipeline.Steps) {
		snap.StepKey = r.pipeline.Steps[r.stepIndex].Key
	}
	return snap
}

// Subscribe returns a channel of state snapshots. Publishing never blocks the
// run loop: when a subscriber lags, its oldest pending snapshot is dropped.
func (r *Run) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 16)
	r.subMu.Lock()
	r.subs = append(r.subs, ch)
	r.subMu.Unlock()
	return ch
}

func (r *Run) publish() {
	r.mu.Lock()
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		for {
			select {
			case ch <- snap:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Start begins executing the pipeline from its first step and blocks until
// the run succeeds, fails, or is cancelled. It is a guarded entry point:
// calling it while the run is executing returns ErrRunActive without queueing
// a second run, and a finished or failed run must be Cancel()ed (or retried)
// rather than restarted.
func (r *Run) Start(ctx context.Context) error {
	r.mu.Lock()
	switch r.status {
	case StatusRunning:
		r.mu.Unlock()
		return ErrRunActive
	case StatusIdle:
	default:
		r.mu.Unlock()
		return ErrRunNotIdle
	}
	r.status = StatusRunning
	r.stepIndex = 0
	r.lastErr = nil
	r.cancelled = false
	r.mu.Unlock()

	r.log.Info("run started", zap.String("run_id", r.id))
	return r.runFrom(ctx, 0)
}

// Retry re-executes the body of the step the run failed at, with the same
// accumulated context, and resumes the loop from there. Earlier steps'
// effects are not redone.
func (r *Run) Retry(ctx context.Context) error {
	r.mu.Lock()
	if r.status != StatusFailed {
		r.mu.Unlock()
		return ErrRunNotFailed
	}
	idx := r.stepIndex
	r.status = StatusRunning
	r.lastErr = nil
	r.mu.Unlock()

	r.log.Info("run retrying", zap.String("run_id", r.id), zap.Int("step", idx))
	return r.runFrom(ctx, idx)
}

// Cancel returns the run to idle and discards its context. It is cooperative:
// a step body already in flight is not aborted and its on-chain effect, if
// any, may still land. That divergence is accepted and not reconciled.
func (r *Run) Cancel() {
	r.mu.Lock()
	r.cancelled = true
	r.status = StatusIdle
	r.stepIndex = 0
	r.lastErr = nil
	r.rc = NewContext()
	r.mu.Unlock()

	r.log.Info("run cancelled", zap.String("run_id", r.id))
	r.publish()
}

func (r *Run) runFrom(ctx context.Context, start int) error {
	steps := r.pipeline.Steps
	for i := start; i < len(steps); i++ {
		step := steps[i]

		r.mu.Lock()
		if r.cancelled {
			r.mu.Unlock()
			return ErrRunCancelled
		}
		// Publish "attempting step i" before invoking the body so an
		// observer never sees stale prior-step state.
		r.stepIndex = i
		rc := r.rc
		r.mu.Unlock()
		r.publish()

		if step.Skip != nil && step.Skip(rc) {
			r.log.Debug("step skipped", zap.String("run_id", r.id), zap.String("step", step.Key))
			continue
		}

		r.log.Debug("step executing", zap.String("run_id", r.id), zap.String("step", step.Key))
		if err := invoke(ctx, step, rc); err != nil {
			if step.Mode == BestEffort {
				r.log.Warn("best-effort step failed, continuing",
					zap.String("run_id", r.id),
					zap.String("step", step.Key),
					zap.Error(err))
				continue
			}

			stepErr := &StepError{
				Key:         step.Key,
				Index:       i,
				Title:       step.FailureTitle,
				Description: step.FailureDescription,
				Err:         err,
			}
			r.mu.Lock()
			if r.cancelled {
				r.mu.Unlock()
				return ErrRunCancelled
			}
			r.status = StatusFailed
			r.lastErr = stepErr
			r.mu.Unlock()
			r.publish()

			r.log.Error("step failed", zap.String("run_id", r.id), zap.String("step", step.Key), zap.Error(err))
			return stepErr
		}
	}

	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return ErrRunCancelled
	}
	// The run stays in Success until the caller resets it, so a final
	// confirmation view has a stable state to render.
	r.status = StatusSuccess
	r.mu.Unlock()
	r.publish()

	r.log.Info("run succeeded", zap.String("run_id", r.id))
	return nil
}
