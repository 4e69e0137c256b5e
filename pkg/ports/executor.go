// Package ports defines the interfaces the engine core consumes and
// produces to. Adapters live under pkg/adapters and pkg/executors; the
// core never assumes a specific backend.
package ports

import "context"

// Task is a unit of computation handed to an executor. Tasks are ordinary
// closures, so dynamically constructed work is submittable as-is.
type Task func() (any, error)

// Executor is the boundary through which a node defers its computation to
// another worker (goroutine pool, process, RPC — the core does not care).
type Executor interface {
	// Submit schedules the task and returns a handle immediately. The
	// task runs to completion or failure; cancellation is not part of the
	// contract.
	Submit(task Task) Future
}

// Future is a pending result handle.
type Future interface {
	// AddDoneCallback registers fn to run once the future resolves. The
	// callback may fire on an arbitrary goroutine; if the future has
	// already resolved, fn runs immediately on the caller.
	AddDoneCallback(fn func(Future))
	// Result blocks until resolution or context cancellation.
	Result(ctx context.Context) (any, error)
	// Done reports whether the future has resolved.
	Done() bool
}
