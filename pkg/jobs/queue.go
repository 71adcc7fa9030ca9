package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueStopped is returned by Enqueue when the queue is not accepting work.
	ErrQueueStopped = errors.New("queue not running")
	// ErrQueueFull is returned by TryEnqueue when every buffer slot is taken.
	ErrQueueFull = errors.New("queue full")
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory job dispatcher backed by goroutines. Handlers are
// registered per job type before Start.
type Queue struct {
	name     string
	handlers map[string]Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	pending sync.WaitGroup
	mu      sync.RWMutex
	started bool
}

// NewQueue builds a new queue.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handlers:   make(map[string]Handler),
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Register binds a handler to a job type, replacing any previous one.
func (q *Queue) Register(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit. Buffered jobs are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Drain blocks until every accepted job finished or ctx ends.
func (q *Queue) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue pushes a job onto the queue, waiting for a free slot for as long as the queue runs.
func (q *Queue) Enqueue(job Job) error {
	ctx, job, err := q.admit(job)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		q.pending.Done()
		return fmt.Errorf("%w: %s", ErrQueueStopped, q.name)
	case q.jobs <- job:
		return nil
	}
}

// TryEnqueue is Enqueue without waiting: a full buffer yields ErrQueueFull.
func (q *Queue) TryEnqueue(job Job) error {
	ctx, job, err := q.admit(job)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		q.pending.Done()
		return fmt.Errorf("%w: %s", ErrQueueStopped, q.name)
	case q.jobs <- job:
		return nil
	default:
		q.pending.Done()
		return fmt.Errorf("%w: %s", ErrQueueFull, q.name)
	}
}

// admit validates job against the queue state and counts it as pending.
func (q *Queue) admit(job Job) (context.Context, Job, error) {
	q.mu.RLock()
	ctx := q.ctx
	started := q.started
	_, known := q.handlers[job.Type]
	q.mu.RUnlock()

	if !started {
		return nil, job, fmt.Errorf("%w: %s", ErrQueueStopped, q.name)
	}
	if !known {
		return nil, job, fmt.Errorf("queue %s: no handler for job type %q", q.name, job.Type)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	q.pending.Add(1)
	return ctx, job, nil
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	q.mu.RLock()
	handler := q.handlers[job.Type]
	q.mu.RUnlock()

	if err := handler(q.ctx, job); err != nil {
		q.handleFailure(job, err)
		return
	}
	q.pending.Done()
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Error("job exceeded retries", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		q.pending.Done()
		return
	}
	q.logger.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.pending.Done()
		case <-timer.C:
			select {
			case q.jobs <- j:
			case <-q.ctx.Done():
				q.pending.Done()
			}
		}
	}(job)
}
