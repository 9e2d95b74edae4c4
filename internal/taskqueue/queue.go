package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/metrics"
)

var logger = logging.For("taskqueue")

// ErrStarted is returned by Push once the queue has been executed or cancelled.
var ErrStarted = errors.New("task queue already started")

// ErrNilTask is returned by Push for a nil task.
var ErrNilTask = errors.New("nil task")

// Task is one unit of deferred work. The context is never cancelled by the
// queue itself; Cancel only prevents tasks that have not been issued yet.
type Task func(ctx context.Context) error

// State is the lifecycle state of a Queue.
type State int

const (
	// StateIdle accepts pushes and has not issued anything.
	StateIdle State = iota
	// StateRunning is issuing or waiting on tasks.
	StateRunning
	// StateDone means every task was issued and has finished.
	StateDone
	// StateCancelled means Cancel was called before the queue finished.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrorHandler is called for every task that returns an error or panics.
type ErrorHandler func(index int, err error)

// Queue is an ordered list of tasks executed with bounded concurrency and
// cancelled as a unit. Each queue owns its own cancellation state.
type Queue struct {
	mu          sync.Mutex
	tasks       []Task
	state       State
	concurrency int
	ctx         context.Context
	onError     ErrorHandler

	issued   int
	failures int

	stop     chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithConcurrency bounds the number of tasks in flight. 0 means unbounded:
// every task is issued as soon as Execute is called.
func WithConcurrency(n int) Option {
	return func(q *Queue) {
		if n < 0 {
			n = 0
		}
		q.concurrency = n
	}
}

// WithContext sets the context handed to every task.
func WithContext(ctx context.Context) Option {
	return func(q *Queue) {
		if ctx != nil {
			q.ctx = ctx
		}
	}
}

// WithErrorHandler registers a callback for task failures.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(q *Queue) {
		q.onError = fn
	}
}

// New creates an idle queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		ctx:  context.Background(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends a task. It does not start anything.
func (q *Queue) Push(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != StateIdle {
		return ErrStarted
	}
	q.tasks = append(q.tasks, task)
	return nil
}

// Len returns the number of pushed tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// State returns the current lifecycle state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Issued returns how many tasks have been started.
func (q *Queue) Issued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.issued
}

// Failures returns how many tasks returned an error or panicked.
func (q *Queue) Failures() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failures
}

// Done returns a channel closed once nothing more will run: every issued
// task has finished and no further task will be issued.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Execute starts issuing tasks in submission order and returns Done().
// Calling it again, or after Cancel, has no effect.
func (q *Queue) Execute() <-chan struct{} {
	q.mu.Lock()
	if q.state != StateIdle {
		q.mu.Unlock()
		return q.done
	}
	q.state = StateRunning
	tasks := q.tasks
	q.mu.Unlock()

	if q.concurrency == 0 {
		for i, task := range tasks {
			if !q.issue(i, task, nil) {
				break
			}
		}
		go q.finish()
		return q.done
	}

	go q.dispatch(tasks)
	return q.done
}

// Cancel stops every task that has not been issued yet. Tasks already in
// flight run to completion. Cancel is idempotent and a no-op on a finished queue.
func (q *Queue) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.state {
	case StateIdle:
		q.state = StateCancelled
		close(q.stop)
		close(q.done)
	case StateRunning:
		q.state = StateCancelled
		close(q.stop)
	}
}

func (q *Queue) dispatch(tasks []Task) {
	sem := make(chan struct{}, q.concurrency)

	for i, task := range tasks {
		select {
		case sem <- struct{}{}:
		case <-q.stop:
			q.finish()
			return
		}
		if !q.issue(i, task, sem) {
			<-sem
			break
		}
	}

	q.finish()
}

// issue starts one task unless the queue was cancelled. The state check and
// the issued counter share the lock with Cancel, so nothing starts after
// Cancel returns.
func (q *Queue) issue(index int, task Task, sem chan struct{}) bool {
	q.mu.Lock()
	if q.state != StateRunning {
		q.mu.Unlock()
		return false
	}
	q.issued++
	q.inflight.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.inflight.Done()
		if sem != nil {
			defer func() { <-sem }()
		}
		q.run(index, task)
	}()
	return true
}

func (q *Queue) run(index int, task Task) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task %d panicked: %v", index, r)
			}
		}()
		err = task(q.ctx)
	}()

	if err == nil {
		return
	}

	q.mu.Lock()
	q.failures++
	handler := q.onError
	q.mu.Unlock()

	metrics.TaskQueueFailures.Inc()
	logger.Debug("task %d failed: %v", index, err)
	if handler != nil {
		handler(index, err)
	}
}

func (q *Queue) finish() {
	q.inflight.Wait()

	q.mu.Lock()
	if q.state == StateRunning {
		q.state = StateDone
	}
	q.mu.Unlock()

	close(q.done)
}
