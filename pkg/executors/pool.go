// Package executors provides executor implementations nodes can defer
// their computation to.
package executors

import (
	"context"
	"sync"

	"github.com/calyptra/flume/pkg/ports"
)

// Pool is a bounded worker-pool executor. Submitted tasks queue until a
// worker is free; each task's result is delivered through its future.
type Pool struct {
	tasks chan job
	wg    sync.WaitGroup

	closeOnce sync.Once
}

type job struct {
	task ports.Task
	out  *future
}

// NewPool starts a pool with the given number of workers and queue depth.
func NewPool(workers, queue int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	p := &Pool{tasks: make(chan job, queue)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.tasks {
		value, err := j.task()
		j.out.resolve(value, err)
	}
}

// Submit enqueues the task and returns its future. Blocks when the queue
// is full. Submitting to a closed pool panics, like sending on a closed
// channel.
func (p *Pool) Submit(task ports.Task) ports.Future {
	f := newFuture()
	p.tasks <- job{task: task, out: f}
	return f
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}

var _ ports.Executor = (*Pool)(nil)

// Inline is an executor that runs the task synchronously on the
// submitting goroutine. It exists so executor-shaped code paths can be
// exercised without concurrency.
type Inline struct{}

// Submit runs the task immediately and returns an already-resolved future.
func (Inline) Submit(task ports.Task) ports.Future {
	f := newFuture()
	value, err := task()
	f.resolve(value, err)
	return f
}

var _ ports.Executor = Inline{}

// future is the pool's ports.Future implementation.
type future struct {
	mu        sync.Mutex
	done      chan struct{}
	value     any
	err       error
	callbacks []func(ports.Future)
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) resolve(value any, err error) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return
	default:
	}
	f.value, f.err = value, err
	close(f.done)
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(f)
	}
}

// AddDoneCallback registers fn to run when the task completes; if it
// already has, fn runs immediately on the calling goroutine.
func (f *future) AddDoneCallback(fn func(ports.Future)) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		fn(f)
		return
	default:
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}

// Result blocks until the task completes or the context is done.
func (f *future) Result(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the task has completed.
func (f *future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

var _ ports.Future = (*future)(nil)
