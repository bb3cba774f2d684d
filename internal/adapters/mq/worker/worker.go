// Package worker runs independent section jobs on a bounded pool of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/takedown/internal/adapters/mq/queue"
	"github.com/okian/takedown/pkg/logger"
	"github.com/okian/takedown/pkg/metrics"
)

// Task processes the job at index i.
type Task func(ctx context.Context, i int) error

// Queue is how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker drains a queue, running one task per job.
type Worker interface {
	// Run processes jobs until the queue is drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker once its current job finishes.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	task  Task
	errs  []error
	name  string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker. errs is indexed by job and must be large enough for every job.
func NewInMemoryWorker(q Queue, task Task, errs []error, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		task:     task,
		errs:     errs,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown signals the worker and waits for it to stop.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.task(ctx, job.Index); err != nil {
		metrics.RecordErrorByComponent("worker", "task_error")
		w.logger.Error(ctx, "job failed",
			logger.String("worker", w.name),
			logger.Int("job", job.Index),
			logger.Error(err),
		)
		w.errs[job.Index] = fmt.Errorf("job %d: %w", job.Index, err)
	}
}

// Pool runs batches of jobs across a fixed number of workers.
// It implements the parser's Executor, so a Pool can extract sections concurrently.
type Pool struct {
	size   int
	logger logger.Logger
}

// NewPool creates a pool. A size below one uses runtime.NumCPU().
func NewPool(size int, opts ...PoolOption) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{size: size, logger: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size is the maximum number of concurrent workers.
func (p *Pool) Size() int { return p.size }

// Run enqueues jobs 0..n-1, drains them on up to Size workers and waits.
// Errors are joined in job order; a canceled context is reported as ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(n))
	for i := 0; i < n; i++ {
		if !q.Enqueue(ctx, queue.Job{Index: i}) {
			_ = q.Close()
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("enqueue job %d: queue refused", i)
		}
	}
	if err := q.Close(); err != nil {
		return err
	}

	count := min(p.size, n)
	metrics.UpdateWorkerActiveCount(count)
	defer metrics.UpdateWorkerActiveCount(0)

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		w := NewInMemoryWorker(q, task, errs,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
