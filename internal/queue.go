package internal

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by blocking pops once the queue was shut down and drained.
var ErrQueueClosed = errors.New("sigui: task queue closed")

// consumed slots kept at the front before the live tail is moved down
const compactThreshold = 1024

// Task is a unit of work marshaled to the main goroutine.
type Task func()

// TaskQueue is an unbounded FIFO of tasks, safe for many producers.
type TaskQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	tasks []Task
	head  int // index of the next task to pop

	closed bool
}

func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{
		tasks: make([]Task, 0, 64),
	}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// Push appends task to the tail and wakes one waiter.
func (q *TaskQueue) Push(task Task) {
	if task == nil {
		return
	}

	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	q.cond.Signal()
}

// TryPop removes and returns the head task, if any.
func (q *TaskQueue) TryPop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pop()
}

// WaitAndPop blocks until a task is available.
// It returns ErrQueueClosed if the queue is closed and empty.
func (q *TaskQueue) WaitAndPop() (Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.len() == 0 && !q.closed {
		q.cond.Wait()
	}

	task, ok := q.pop()
	if !ok {
		return nil, ErrQueueClosed
	}

	return task, nil
}

// Shutdown closes the queue and wakes every waiter. Pushing is still allowed.
func (q *TaskQueue) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Reopen clears the closed flag set by Shutdown.
func (q *TaskQueue) Reopen() {
	q.mu.Lock()
	q.closed = false
	q.mu.Unlock()
}

func (q *TaskQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.len()
}

func (q *TaskQueue) len() int {
	return len(q.tasks) - q.head
}

// pop must be called with mu held
func (q *TaskQueue) pop() (Task, bool) {
	if q.len() == 0 {
		return nil, false
	}

	task := q.tasks[q.head]
	q.tasks[q.head] = nil
	q.head++

	// fully drained, reuse the backing array
	if q.head == len(q.tasks) {
		q.tasks = q.tasks[:0]
		q.head = 0
	} else if q.head >= compactThreshold && q.head*2 >= len(q.tasks) {
		n := copy(q.tasks, q.tasks[q.head:])
		clear(q.tasks[n:])
		q.tasks = q.tasks[:n]
		q.head = 0
	}

	return task, true
}
