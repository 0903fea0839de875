package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingStep(key string, counter *int, fail func() error) Step {
	return Step{
		Key:                key,
		FailureTitle:       key + " failed",
		FailureDescription: "retry " + key,
		Run: func(ctx context.Context, rc *Context) error {
			*counter++
			if fail != nil {
				return fail()
			}
			return nil
		},
	}
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	var order []string
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "a", Run: func(ctx context.Context, rc *Context) error {
			order = append(order, "a")
			rc.Set("fromA", "hello")
			return nil
		}},
		{Key: "b", Run: func(ctx context.Context, rc *Context) error {
			order = append(order, "b")
			assert.Equal(t, "hello", rc.String("fromA"))
			return nil
		}},
	}}

	run := NewRun(p, nil)
	require.NoError(t, run.Start(context.Background()))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, StatusSuccess, run.Snapshot().Status)
}

func TestRetryReExecutesOnlyFailingStep(t *testing.T) {
	var aRuns, bRuns, cRuns int
	bAttempts := 0
	p := Pipeline{Name: "test", Steps: []Step{
		countingStep("a", &aRuns, nil),
		countingStep("b", &bRuns, func() error {
			bAttempts++
			if bAttempts == 1 {
				return errors.New("transient")
			}
			return nil
		}),
		countingStep("c", &cRuns, nil),
	}}

	run := NewRun(p, nil)
	err := run.Start(context.Background())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "b", stepErr.Key)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "b failed", stepErr.Title)

	snap := run.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, 1, snap.StepIndex, "index must not advance past the failing step")
	assert.Equal(t, 0, cRuns, "no later step may run after a failure")

	require.NoError(t, run.Retry(context.Background()))
	assert.Equal(t, 1, aRuns, "earlier steps are not redone on retry")
	assert.Equal(t, 2, bRuns)
	assert.Equal(t, 1, cRuns)
	assert.Equal(t, StatusSuccess, run.Snapshot().Status)
}

func TestRetryRequiresFailedRun(t *testing.T) {
	run := NewRun(Pipeline{Name: "test"}, nil)
	assert.ErrorIs(t, run.Retry(context.Background()), ErrRunNotFailed)

	require.NoError(t, run.Start(context.Background()))
	assert.ErrorIs(t, run.Retry(context.Background()), ErrRunNotFailed)
}

func TestStartIsGuardedReEntry(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "slow", Run: func(ctx context.Context, rc *Context) error {
			close(entered)
			<-release
			return nil
		}},
	}}

	run := NewRun(p, nil)
	done := make(chan error, 1)
	go func() { done <- run.Start(context.Background()) }()

	<-entered
	assert.ErrorIs(t, run.Start(context.Background()), ErrRunActive)
	close(release)
	require.NoError(t, <-done)

	// A finished run is not restartable either; it must be reset first.
	assert.ErrorIs(t, run.Start(context.Background()), ErrRunNotIdle)
}

func TestBestEffortStepFailureStillSucceeds(t *testing.T) {
	var tailRan bool
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "work", Run: func(ctx context.Context, rc *Context) error { return nil }},
		{Key: "tip", Mode: BestEffort, Run: func(ctx context.Context, rc *Context) error {
			return errors.New("tip rejected")
		}},
		{Key: "tail", Run: func(ctx context.Context, rc *Context) error {
			tailRan = true
			return nil
		}},
	}}

	run := NewRun(p, nil)
	require.NoError(t, run.Start(context.Background()))
	assert.True(t, tailRan)

	snap := run.Snapshot()
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Nil(t, snap.LastError)
}

func TestBestEffortStepPanicStillSucceeds(t *testing.T) {
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "tip", Mode: BestEffort, Run: func(ctx context.Context, rc *Context) error {
			panic("boom")
		}},
	}}

	run := NewRun(p, nil)
	require.NoError(t, run.Start(context.Background()))
	assert.Equal(t, StatusSuccess, run.Snapshot().Status)
}

func TestSkipPredicateEvaluatedAgainstContext(t *testing.T) {
	var approved bool
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "build", Run: func(ctx context.Context, rc *Context) error {
			rc.Set("already_approved", true)
			return nil
		}},
		{
			Key:  "approve",
			Skip: func(rc *Context) bool { return rc.Bool("already_approved") },
			Run: func(ctx context.Context, rc *Context) error {
				approved = true
				return nil
			},
		},
	}}

	run := NewRun(p, nil)
	require.NoError(t, run.Start(context.Background()))
	assert.False(t, approved, "skipped step body must not run")
}

func TestCancelReturnsToIdleAndDiscardsContext(t *testing.T) {
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "a", Run: func(ctx context.Context, rc *Context) error {
			rc.Set("k", "v")
			return errors.New("nope")
		}},
	}}

	run := NewRun(p, nil)
	require.Error(t, run.Start(context.Background()))

	run.Cancel()
	snap := run.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, 0, snap.StepIndex)
	assert.Nil(t, snap.LastError)

	_, ok := run.Context().Value("k")
	assert.False(t, ok)
}

func TestCancelPreventsNextStep(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var secondRan bool
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "a", Run: func(ctx context.Context, rc *Context) error {
			close(entered)
			<-release
			return nil
		}},
		{Key: "b", Run: func(ctx context.Context, rc *Context) error {
			secondRan = true
			return nil
		}},
	}}

	run := NewRun(p, nil)
	done := make(chan error, 1)
	go func() { done <- run.Start(context.Background()) }()

	<-entered
	run.Cancel()
	close(release)
	assert.ErrorIs(t, <-done, ErrRunCancelled)
	assert.False(t, secondRan, "cancel must stop the run before the next step")
}

func TestSubscribePublishesStepTransitions(t *testing.T) {
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "a", Run: func(ctx context.Context, rc *Context) error { return nil }},
		{Key: "b", Run: func(ctx context.Context, rc *Context) error { return nil }},
	}}

	run := NewRun(p, nil)
	updates := run.Subscribe()
	require.NoError(t, run.Start(context.Background()))

	var snaps []Snapshot
	for len(updates) > 0 {
		snaps = append(snaps, <-updates)
	}
	require.NotEmpty(t, snaps)

	last := snaps[len(snaps)-1]
	assert.Equal(t, StatusSuccess, last.Status)

	// The running snapshots must announce each step before its body ran.
	assert.Equal(t, "a", snaps[0].StepKey)
	assert.Equal(t, StatusRunning, snaps[0].Status)
}

func TestSubscribeDeliversTerminalFailureSnapshot(t *testing.T) {
	p := Pipeline{Name: "test", Steps: []Step{
		{Key: "a", Run: func(ctx context.Context, rc *Context) error { return nil }},
		{Key: "b", FailureTitle: "b failed", Run: func(ctx context.Context, rc *Context) error {
			return errors.New("nope")
		}},
	}}

	run := NewRun(p, nil)
	updates := run.Subscribe()
	require.Error(t, run.Start(context.Background()))

	// A subscriber loop that exits on a terminal status relies on the failed
	// snapshot reaching the channel; drain and check the tail.
	var snaps []Snapshot
	for len(updates) > 0 {
		snaps = append(snaps, <-updates)
	}
	require.NotEmpty(t, snaps)

	last := snaps[len(snaps)-1]
	assert.Equal(t, StatusFailed, last.Status)
	require.NotNil(t, last.LastError)
	assert.Equal(t, "b", last.LastError.Key)
	assert.Equal(t, "b failed", last.LastError.Title)
}
