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

// ErrQueueClosed is returned when a job is offered to a queue that is not running.
var ErrQueueClosed = errors.New("queue is not running")

// Job is one unit of background work. Payload is opaque to the queue.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A non-nil error schedules a retry until MaxRetries is exhausted.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
	// OnGiveUp is invoked once a job has failed more than MaxRetries times.
	OnGiveUp func(Job, error)
}

// Queue is an in-memory job dispatcher backed by a fixed set of goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs     chan Job
	inflight atomic.Int64

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewQueue builds a queue that feeds jobs to handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
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
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.Named("jobs").With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "workers", q.cfg.Workers, "max_retries", q.cfg.MaxRetries)
}

// Stop cancels the workers and waits for in-flight handlers to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "pending", len(q.jobs))
}

// Pending reports buffered plus in-flight jobs.
func (q *Queue) Pending() int {
	return len(q.jobs) + int(q.inflight.Load())
}

// Enqueue offers a job to the workers, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.inflight.Add(1)
			err := q.run(job)
			q.inflight.Add(-1)
			if err != nil {
				q.handleFailure(workerID, job, err)
			}
		}
	}
}

func (q *Queue) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) handleFailure(workerID int, job Job, err error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.logger.Sugar().Errorw("job exceeded retries", "worker", workerID, "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "error", err)
		if q.cfg.OnGiveUp != nil {
			q.cfg.OnGiveUp(job, err)
		}
		return
	}
	q.logger.Sugar().Warnw("job failed, retrying", "worker", workerID, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	q.wg.Add(1)
	go func(j Job) {
		defer q.wg.Done()
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue job", "job_id", j.ID, "error", err)
			}
		}
	}(job)
}
