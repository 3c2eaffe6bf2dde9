package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
var ErrQueueFull = errors.New("queue full")

// ErrQueueStopped is returned when enqueuing on a queue that is not running.
var ErrQueueStopped = errors.New("queue not running")

// Job wraps a payload with delivery bookkeeping.
type Job[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler[T any] func(context.Context, Job[T]) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is multiplied by the attempt number before a retry.
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Stats is a point-in-time view of queue counters.
type Stats struct {
	Processed uint64
	Failed    uint64
	Dropped   uint64
	Pending   int
}

// Queue is an in-memory job dispatcher backed by a fixed goroutine pool.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     QueueConfig
	logger  *zap.Logger

	jobs    chan Job[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	retries sync.WaitGroup
	mu      sync.RWMutex
	running bool

	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	// inflight counts accepted jobs that have not reached a final outcome.
	inflight atomic.Int64
}

// NewQueue builds a queue with the provided handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job[T], cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new jobs, waits until every accepted job has succeeded or
// exhausted its retries or ctx expires, then stops the workers.
func (q *Queue[T]) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
drain:
	for q.inflight.Load() > 0 {
		select {
		case <-ctx.Done():
			break drain
		case <-ticker.C:
		}
	}
	q.cancel()
	q.wg.Wait()
	q.retries.Wait()
	q.logger.Info("queue stopped", zap.Int("abandoned", len(q.jobs)))
}

// Enqueue blocks until the job is buffered or ctx is done.
func (q *Queue[T]) Enqueue(ctx context.Context, id string, payload T) error {
	job := Job[T]{ID: id, Payload: payload, Enqueued: time.Now().UTC()}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrQueueStopped)
	}
	q.inflight.Add(1)
	select {
	case <-ctx.Done():
		q.inflight.Add(-1)
		return ctx.Err()
	case q.jobs <- job:
		return nil
	}
}

// TryEnqueue buffers the job without blocking; a full buffer drops it.
func (q *Queue[T]) TryEnqueue(id string, payload T) error {
	job := Job[T]{ID: id, Payload: payload, Enqueued: time.Now().UTC()}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrQueueStopped)
	}
	q.inflight.Add(1)
	select {
	case q.jobs <- job:
		return nil
	default:
		q.inflight.Add(-1)
		q.dropped.Add(1)
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

// Stats reports the queue counters.
func (q *Queue[T]) Stats() Stats {
	return Stats{
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
		Pending:   len(q.jobs),
	}
}

func (q *Queue[T]) worker() {
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

func (q *Queue[T]) run(job Job[T]) {
	err := q.handler(q.ctx, job)
	if err == nil {
		q.processed.Add(1)
		q.inflight.Add(-1)
		return
	}
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.failed.Add(1)
		q.inflight.Add(-1)
		q.logger.Error("job exceeded retries", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
		return
	}
	q.logger.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))

	q.retries.Add(1)
	go func(j Job[T]) {
		defer q.retries.Done()
		timer := time.NewTimer(q.cfg.RetryDelay * time.Duration(j.Attempt))
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.failed.Add(1)
			q.inflight.Add(-1)
			return
		case <-timer.C:
			q.run(j)
		}
	}(job)
}
