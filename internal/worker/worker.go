package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"swaraj/internal/logging"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned for work submitted to, or still queued in, a
// stopped pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is a unit of blocking work, typically one model inference.
type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	job  Job
	done chan error // buffered so a worker never blocks on an abandoned caller
}

// Pool runs jobs on a fixed set of goroutines so that blocking inference
// never runs on request goroutines, and so that at most size jobs touch the
// model at once.
type Pool struct {
	size   int
	tasks  chan task
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger
}

// NewPool creates a pool of size workers with room for queue waiting jobs.
func NewPool(size, queue int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &Pool{
		size:   size,
		tasks:  make(chan task, queue),
		stop:   make(chan struct{}),
		logger: logging.OrNop(logger).Named("worker"),
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Start begins processing jobs
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.Info("worker pool started", zap.Int("workers", p.size))
}

// Stop rejects new work, lets running jobs finish and fails queued ones.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()

	for {
		select {
		case t := <-p.tasks:
			t.done <- ErrPoolClosed
		default:
			p.logger.Info("worker pool stopped")
			return
		}
	}
}

// Submit queues job and waits for it to finish. If ctx ends first, Submit
// returns ctx's error; a job that already started keeps running to
// completion, a queued one is skipped.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	t := task{ctx: ctx, job: job, done: make(chan error, 1)}
	select {
	case p.tasks <- t:
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	case <-p.stop:
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	p.mu.RUnlock()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the pool and returns its value.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Submit(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case t := <-p.tasks:
			p.execute(id, t)
		}
	}
}

func (p *Pool) execute(id int, t task) {
	if err := t.ctx.Err(); err != nil {
		p.logger.Debug("skipping abandoned job", zap.Int("worker", id))
		t.done <- err
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", zap.Int("worker", id), zap.Any("panic", r))
			t.done <- fmt.Errorf("job panicked: %v", r)
		}
	}()

	t.done <- t.job(t.ctx)
}
