package preload

import (
	"context"
	"fmt"
	"sync"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/metrics"
	"media-lightbox/internal/taskqueue"
)

var logger = logging.For("preload")

// Axis is one independent preload queue.
type Axis string

const (
	// AxisMetadata preloads size-independent metadata.
	AxisMetadata Axis = "metadata"
	// AxisThumbnail preloads renditions at the current display width.
	AxisThumbnail Axis = "thumbnail"
)

// Axes lists every axis in a fixed order.
var Axes = []Axis{AxisMetadata, AxisThumbnail}

// State is the scheduling state of one axis.
type State int

const (
	// StateIdle has no live queue.
	StateIdle State = iota
	// StateScheduled has a queue issuing or running tasks.
	StateScheduled
	// StateCancelled had its queue cancelled and nothing scheduled since.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Window returns the indices to preload around current, nearest first:
// current, current+1, current-1, current+2, current-2, ... up to distance
// steps each way, restricted to [0, count).
func Window(current, count, distance int) []int {
	if count <= 0 {
		return nil
	}
	if distance < 0 {
		distance = 0
	}

	window := make([]int, 0, 2*distance+1)
	if current >= 0 && current < count {
		window = append(window, current)
	}
	for step := 1; step <= distance; step++ {
		if next := current + step; next >= 0 && next < count {
			window = append(window, next)
		}
		if prev := current - step; prev >= 0 && prev < count {
			window = append(window, prev)
		}
	}
	return window
}

// TaskFactory builds the preload task for one index.
type TaskFactory func(index int) taskqueue.Task

type axisState struct {
	queue *taskqueue.Queue
	state State
}

// Scheduler keeps one cancellable preload queue per axis.
type Scheduler struct {
	mu          sync.Mutex
	distance    int
	concurrency map[Axis]int
	axes        map[Axis]*axisState
	ctx         context.Context
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConcurrency bounds in-flight tasks on one axis. 0 is unbounded.
func WithConcurrency(axis Axis, n int) Option {
	return func(s *Scheduler) {
		s.concurrency[axis] = n
	}
}

// WithContext sets the context preload tasks run with.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// NewScheduler creates a scheduler with the given window distance.
func NewScheduler(distance int, opts ...Option) *Scheduler {
	if distance < 0 {
		distance = 0
	}
	s := &Scheduler{
		distance:    distance,
		concurrency: make(map[Axis]int),
		axes:        make(map[Axis]*axisState),
		ctx:         context.Background(),
	}
	for _, axis := range Axes {
		s.axes[axis] = &axisState{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Distance returns the window distance.
func (s *Scheduler) Distance() int {
	return s.distance
}

// Schedule cancels the axis queue and starts a fresh one over the window
// around current. It returns the new queue.
func (s *Scheduler) Schedule(axis Axis, current, count int, factory TaskFactory) *taskqueue.Queue {
	window := Window(current, count, s.distance)

	s.mu.Lock()
	ax := s.axisLocked(axis)
	s.cancelLocked(axis, ax)

	q := taskqueue.New(
		taskqueue.WithConcurrency(s.concurrency[axis]),
		taskqueue.WithContext(s.ctx),
		taskqueue.WithErrorHandler(func(index int, err error) {
			logger.Debug("%s preload task %d failed: %v", axis, index, err)
		}),
	)
	for _, index := range window {
		task := factory(index)
		if task == nil {
			continue
		}
		err := q.Push(func(ctx context.Context) error {
			err := task(ctx)
			status := "success"
			if err != nil {
				status = "error"
			}
			metrics.PreloadTasksTotal.WithLabelValues(string(axis), status).Inc()
			return err
		})
		if err != nil {
			logger.Warn("%s preload task %d not queued: %v", axis, index, err)
		}
	}

	ax.queue = q
	ax.state = StateScheduled
	s.mu.Unlock()

	metrics.PreloadQueuesScheduled.WithLabelValues(string(axis)).Inc()
	logger.Debug("%s preload scheduled around %d: %v", axis, current, window)

	done := q.Execute()
	go s.settle(axis, q, done)
	return q
}

// settle moves the axis back to idle once its queue finishes, unless a newer
// queue replaced it or it was cancelled.
func (s *Scheduler) settle(axis Axis, q *taskqueue.Queue, done <-chan struct{}) {
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	ax := s.axisLocked(axis)
	if ax.queue == q && ax.state == StateScheduled {
		ax.queue = nil
		ax.state = StateIdle
	}
}

// Cancel drops the not-yet-issued tasks of one axis.
func (s *Scheduler) Cancel(axis Axis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(axis, s.axisLocked(axis))
}

// CancelAll cancels every axis.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, axis := range Axes {
		s.cancelLocked(axis, s.axisLocked(axis))
	}
}

// State returns the state of an axis.
func (s *Scheduler) State(axis Axis) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.axisLocked(axis).state
}

// Queue returns the live queue of an axis, or nil.
func (s *Scheduler) Queue(axis Axis) *taskqueue.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.axisLocked(axis).queue
}

func (s *Scheduler) axisLocked(axis Axis) *axisState {
	ax, ok := s.axes[axis]
	if !ok {
		ax = &axisState{}
		s.axes[axis] = ax
	}
	return ax
}

func (s *Scheduler) cancelLocked(axis Axis, ax *axisState) {
	if ax.queue == nil {
		return
	}
	ax.queue.Cancel()
	ax.queue = nil
	ax.state = StateCancelled
	metrics.PreloadQueuesCancelled.WithLabelValues(string(axis)).Inc()
}
