package workerpool

import (
	"context"
	"sync"
)

// Task is a unit of work dispatched to the pool.
type Task func(ctx context.Context)

// Pool is a bounded task queue with a fixed set of workers. When the queue is
// full, Submit runs the task synchronously on the caller instead of dropping
// it, so computations degrade gracefully under load but are never lost.
type Pool struct {
	tasks    chan Task
	workers  int
	inflight sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    sync.WaitGroup
}

// Option configures Pool.
type Option func(*poolConfig)

type poolConfig struct {
	Workers   int
	QueueSize int
}

// WithWorkers sets the number of workers.
func WithWorkers(n int) Option {
	return func(c *poolConfig) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithQueueSize sets the pending task capacity.
func WithQueueSize(n int) Option {
	return func(c *poolConfig) {
		if n > 0 {
			c.QueueSize = n
		}
	}
}

// New creates a pool. Start must be called before Submit enqueues anything;
// before Start, tasks run on the caller.
func New(opts ...Option) *Pool {
	cfg := &poolConfig{
		Workers:   4,
		QueueSize: 64,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Pool{
		tasks:   make(chan Task, cfg.QueueSize),
		workers: cfg.Workers,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.workers; i++ {
		p.done.Add(1)
		go func() {
			defer p.done.Done()
			for {
				select {
				case <-p.stopCh:
					return
				case task := <-p.tasks:
					if task == nil {
						continue
					}
					p.run(ctx, task)
				}
			}
		}()
	}
}

// Submit dispatches a task. Saturation policy: if the queue is full or the
// pool is not running, the task executes synchronously on the caller.
func (p *Pool) Submit(ctx context.Context, task Task) {
	if task == nil {
		return
	}
	p.inflight.Add(1)

	p.mu.Lock()
	running := p.started
	p.mu.Unlock()

	if running {
		select {
		case p.tasks <- task:
			return
		default:
			// queue full, fall through to caller execution
		}
	}
	p.run(ctx, task)
}

func (p *Pool) run(ctx context.Context, task Task) {
	defer p.inflight.Done()
	task(ctx)
}

// Wait blocks until every submitted task has completed. Production callers
// never wait; tests use it to observe completion of the async handoff.
func (p *Pool) Wait() {
	p.inflight.Wait()
}

// Stop halts the workers. Queued tasks that have not started are abandoned;
// call Wait before Stop to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	close(p.stopCh)
	p.done.Wait()
}
