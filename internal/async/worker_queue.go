package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type task struct {
	ctx context.Context
	job Job
}

// WorkerQueue runs jobs on a fixed pool of goroutines. With a single worker,
// jobs run strictly in submission order.
type WorkerQueue struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan task
	wg   sync.WaitGroup
	once sync.Once

	closeMu sync.RWMutex
	closed  bool

	pendMu  sync.Mutex
	pending int
	idle    chan struct{}
}

var _ Queue = (*WorkerQueue)(nil)

type Option func(*WorkerQueue)

func WithWorkers(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.ch = make(chan task, n)
		}
	}
}
func WithJobTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewWorkerQueue(logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan task, 256),
		idle:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for t := range q.ch {
					q.run(workerID, t)
					q.done()
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *WorkerQueue) run(workerID int, t task) {
	ctx, cancel := context.WithTimeout(t.ctx, q.timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		return t.job.Run(ctx)
	}()

	if err != nil {
		q.logger.Error("job failed", "worker_id", workerID, "job", t.job.Name, "trace_id", t.job.TraceID, "error", err)
		return
	}
	q.logger.Debug("job done", "worker_id", workerID, "job", t.job.Name, "trace_id", t.job.TraceID,
		"elapsed_ms", time.Since(start).Milliseconds())
}

// Enqueue hands job to the pool. The job's context keeps ctx's values but not
// its cancellation. A full queue blocks the caller until space frees up or ctx ends.
func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job", job.Name)
		return ErrQueueClosed
	}
	if job.Run == nil {
		return fmt.Errorf("job %q has no Run func", job.Name)
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}

	t := task{ctx: context.WithoutCancel(ctx), job: job}
	q.add()
	select {
	case q.ch <- t:
		q.logger.Debug("queued job", "job", job.Name, "trace_id", job.TraceID)
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "job", job.Name)
	select {
	case q.ch <- t:
		return nil
	case <-ctx.Done():
		q.done()
		return ctx.Err()
	}
}

// Flush blocks until every enqueued job has finished or ctx ends.
func (q *WorkerQueue) Flush(ctx context.Context) error {
	q.pendMu.Lock()
	if q.pending == 0 {
		q.pendMu.Unlock()
		return nil
	}
	idle := q.idle
	q.pendMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *WorkerQueue) add() {
	q.pendMu.Lock()
	q.pending++
	q.pendMu.Unlock()
}

func (q *WorkerQueue) done() {
	q.pendMu.Lock()
	q.pending--
	if q.pending == 0 {
		close(q.idle)
		q.idle = make(chan struct{})
	}
	q.pendMu.Unlock()
}

// Shutdown stops accepting jobs and waits for queued ones to drain.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.closeMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Debug("queue drained, shutdown complete")
	}
}
