// Package queue provides the in-process task queue behind the pipeline.
// Each submitted task is one job's full chain, so a job's steps always run
// sequentially; the worker pool only adds concurrency across jobs.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Task is one queued unit of work.
type Task func(ctx context.Context)

var (
	// ErrClosed is returned by Enqueue after Shutdown.
	ErrClosed = errors.New("queue: closed")
	// ErrFull is returned by Enqueue when the buffer is exhausted.
	ErrFull = errors.New("queue: full")
)

// Queue dispatches tasks to a fixed pool of worker goroutines.
type Queue struct {
	tasks   chan Task
	workers int
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Queue with the given worker count and buffer.
func New(workers int, logger *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		tasks:   make(chan Task, 64),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker pool. Workers exit when the context is
// cancelled or the queue is shut down.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	q.logger.Info("queue started", "workers", q.workers)
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			q.run(ctx, id, task)
		}
	}
}

// run executes one task, containing panics so a bad job cannot take a
// worker down.
func (q *Queue) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", "worker", id, "panic", r)
		}
	}()
	task(ctx)
}

// Enqueue submits a task. The send happens under the lock so Shutdown can
// never close the channel out from under a sender.
func (q *Queue) Enqueue(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrFull
	}
}

// Shutdown stops accepting tasks and waits for in-flight ones to finish.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("queue drained")
}
