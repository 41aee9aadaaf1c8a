package internal

import (
	"context"
	"sync"
	"sync/atomic"
)

// Scheduler marshals tasks onto the goroutine bound as main.
type Scheduler struct {
	queue *TaskQueue

	// goroutine id of the main goroutine, 0 while unbound
	main atomic.Int64

	logger atomic.Pointer[Logger]
}

func NewScheduler(logger *Logger) *Scheduler {
	s := &Scheduler{
		queue: NewTaskQueue(),
	}
	s.logger.Store(logger)

	return s
}

var (
	defaultOnce      sync.Once
	defaultScheduler *Scheduler
)

// Default returns the process-wide scheduler, creating it on first use.
func Default() *Scheduler {
	defaultOnce.Do(func() {
		defaultScheduler = NewScheduler(DefaultLogger())
	})

	return defaultScheduler
}

func (s *Scheduler) Logger() *Logger { return s.logger.Load() }

func (s *Scheduler) SetLogger(logger *Logger) { s.logger.Store(logger) }

// Post enqueues fn for the main goroutine and returns immediately.
func (s *Scheduler) Post(fn func()) {
	s.queue.Push(fn)
}

// PostAndWait runs fn on the main goroutine and blocks until it returned or ctx is done.
// A panic inside fn is returned as a *PanicError.
func (s *Scheduler) PostAndWait(ctx context.Context, fn func() (any, error)) (any, error) {
	type result struct {
		value any
		err   error
	}

	// buffered so an abandoned wait never blocks the main goroutine
	done := make(chan result, 1)

	s.Post(func() {
		var res result
		if err := Protect(func() { res.value, res.err = fn() }); err != nil {
			res = result{err: err}
		}
		done <- res
	})

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessTasks runs queued tasks until the queue is empty, including tasks
// posted while draining. It never blocks waiting for new work.
func (s *Scheduler) ProcessTasks() int {
	n := 0
	for {
		task, ok := s.queue.TryPop()
		if !ok {
			return n
		}

		s.runTask(task)
		n++
	}
}

// Run binds the calling goroutine as main and executes tasks until Shutdown
// closed the queue and every pending task ran.
func (s *Scheduler) Run() {
	s.SetMainThread()

	for s.RunNext() == nil {
	}

	s.Logger().Debug().Log("scheduler stopped")
}

// RunNext blocks until a task is queued and runs it.
// It returns ErrQueueClosed once the queue is shut down and empty.
func (s *Scheduler) RunNext() error {
	task, err := s.queue.WaitAndPop()
	if err != nil {
		return err
	}

	s.runTask(task)
	return nil
}

func (s *Scheduler) runTask(task Task) {
	if err := Protect(task); err != nil {
		s.Logger().Err().Err(err).Log("task execution failed")
	}
}

// Execute runs fn inline when called on the main goroutine, otherwise posts it.
func (s *Scheduler) Execute(fn func()) {
	if s.IsMainThread() {
		fn()
		return
	}

	s.Post(fn)
}

// SetMainThread binds the calling goroutine as main.
func (s *Scheduler) SetMainThread() {
	gid := getGID()
	s.main.Store(gid)

	s.Logger().Debug().Int64("goroutine", gid).Log("main goroutine bound")
}

func (s *Scheduler) IsMainThread() bool {
	main := s.main.Load()
	return main != 0 && main == getGID()
}

// Initialize binds the caller as main and reopens the queue after a Shutdown.
func (s *Scheduler) Initialize() {
	s.queue.Reopen()
	s.SetMainThread()
}

// Shutdown closes the queue and unbinds the main goroutine. Idempotent.
func (s *Scheduler) Shutdown() {
	s.queue.Shutdown()
	s.main.Store(0)

	s.Logger().Debug().Log("scheduler shut down")
}

func (s *Scheduler) Closed() bool { return s.queue.Closed() }

// Pending is the number of queued tasks.
func (s *Scheduler) Pending() int { return s.queue.Len() }
