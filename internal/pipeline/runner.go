package pipeline

// runner.go serializes pipeline runs inside one process.
//
// The runner holds a single-slot semaphore. A run that finds the slot taken
// fails immediately with ErrRunInProgress instead of queueing, so the HTTP
// surface can answer 409 and the scheduler can skip a tick. WaitForDrain
// blocks shutdown until the active run finishes.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when another run holds the slot.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Executor runs the pipeline once.
type Executor interface {
	Run(ctx context.Context) (*Result, error)
}

// Runner allows at most one run at a time and remembers the latest result.
type Runner struct {
	exec Executor
	slot chan struct{}

	mu     sync.RWMutex
	latest *Result
}

// NewRunner wraps exec.
func NewRunner(exec Executor) *Runner {
	return &Runner{exec: exec, slot: make(chan struct{}, 1)}
}

// Run executes the pipeline if no other run is active.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.tryAcquire() {
		return nil, ErrRunInProgress
	}
	defer r.release()

	res, err := r.exec.Run(ctx)
	if res != nil {
		r.mu.Lock()
		r.latest = res
		r.mu.Unlock()
	}
	return res, err
}

// Latest returns the most recent result, or nil before the first run.
func (r *Runner) Latest() *Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Busy reports whether a run is active.
func (r *Runner) Busy() bool {
	return len(r.slot) > 0
}

func (r *Runner) tryAcquire() bool {
	select {
	case r.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (r *Runner) release() {
	<-r.slot
}

// WaitForDrain blocks until no run is active or ctx is done.
func (r *Runner) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !r.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
