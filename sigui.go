// Package sigui keeps a single-threaded UI toolkit in sync with values changed
// from any goroutine. Observables deliver their notifications on one main
// goroutine through a Scheduler, and Views only touch native objects there.
package sigui

import (
	"context"
	"sync"

	"github.com/AnatoleLucet/sigui/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// Scheduler marshals work onto a single main goroutine.
type Scheduler struct {
	s *internal.Scheduler
}

// NewScheduler creates a scheduler with its own task queue.
// Tests should prefer this over the process-wide Default scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	c := config{
		logger: internal.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(&c)
	}

	return &Scheduler{internal.NewScheduler(c.logger)}
}

var (
	defaultOnce      sync.Once
	defaultScheduler *Scheduler
)

// Default returns the process-wide scheduler used by the package level functions.
func Default() *Scheduler {
	defaultOnce.Do(func() {
		defaultScheduler = &Scheduler{internal.Default()}
	})

	return defaultScheduler
}

// Post enqueues fn to run on the main goroutine and returns immediately.
func (s *Scheduler) Post(fn func()) { s.s.Post(fn) }

// Call runs fn on the main goroutine and waits for it to return.
// Must not be called from the main goroutine unless something else drains the queue.
func (s *Scheduler) Call(ctx context.Context, fn func() error) error {
	_, err := s.s.PostAndWait(ctx, func() (any, error) { return nil, fn() })
	return err
}

// Execute runs fn inline when called from the main goroutine, otherwise posts it.
func (s *Scheduler) Execute(fn func()) { s.s.Execute(fn) }

// ProcessTasks drains the queue without blocking and returns how many tasks ran.
// Call it once per iteration of the host's event loop, from the main goroutine.
// A panicking task is logged and does not stop the others.
func (s *Scheduler) ProcessTasks() int { return s.s.ProcessTasks() }

// Run makes the calling goroutine the main goroutine and executes tasks until Shutdown.
func (s *Scheduler) Run() { s.s.Run() }

// RunNext blocks for the next task and runs it on the calling goroutine.
// It returns ErrQueueClosed once the scheduler is shut down and drained.
func (s *Scheduler) RunNext() error { return s.s.RunNext() }

// SetMainThread binds the calling goroutine as the main goroutine.
func (s *Scheduler) SetMainThread() { s.s.SetMainThread() }

// IsMainThread reports whether the caller is the bound main goroutine.
func (s *Scheduler) IsMainThread() bool { return s.s.IsMainThread() }

// Initialize binds the calling goroutine as main and reopens the queue after a Shutdown.
func (s *Scheduler) Initialize() { s.s.Initialize() }

// Shutdown closes the queue, waking blocked consumers, and unbinds the main goroutine.
func (s *Scheduler) Shutdown() { s.s.Shutdown() }

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int { return s.s.Pending() }

// SetLogger replaces the logger used to report failed tasks. nil silences it.
func (s *Scheduler) SetLogger(logger *Logger) { s.s.SetLogger(logger) }

// PostAndWaitOn runs fn on the main goroutine of s and returns its result.
// A panic in fn is returned as a *PanicError. If ctx is done first, ctx.Err() is
// returned and the result of the still queued task is discarded.
func PostAndWaitOn[R any](ctx context.Context, s *Scheduler, fn func() (R, error)) (R, error) {
	v, err := s.s.PostAndWait(ctx, func() (any, error) { return fn() })
	if err != nil {
		var zero R
		return zero, err
	}

	return as[R](v), nil
}

// PostAndWait is PostAndWaitOn using the Default scheduler.
func PostAndWait[R any](ctx context.Context, fn func() (R, error)) (R, error) {
	return PostAndWaitOn(ctx, Default(), fn)
}

// Post enqueues fn on the Default scheduler.
func Post(fn func()) { Default().Post(fn) }

// Call runs fn on the Default scheduler's main goroutine and waits for it.
func Call(ctx context.Context, fn func() error) error { return Default().Call(ctx, fn) }

// Execute runs fn inline on the main goroutine, or posts it to the Default scheduler.
func Execute(fn func()) { Default().Execute(fn) }

// ProcessTasks drains the Default scheduler.
func ProcessTasks() int { return Default().ProcessTasks() }

// Initialize binds the calling goroutine as main for the Default scheduler.
func Initialize() { Default().Initialize() }

// Shutdown shuts the Default scheduler down.
func Shutdown() { Default().Shutdown() }
