package graph

import "time"

// NodeEvent describes one run of one node, as observed by lifecycle hooks.
type NodeEvent struct {
	Label    string
	Path     string
	Deferred bool
	Duration time.Duration
	Err      error
}

// SignalEvent describes one emission of a signal output.
type SignalEvent struct {
	From   string
	Fanout int
}

// Hooks is the observability seam: callbacks fired around every node run
// in the graph. Hooks are registered on the workflow root and observed by
// every descendant. Callbacks run synchronously on the goroutine that
// services the run (a worker goroutine for deferred completions), so they
// should be quick.
type Hooks struct {
	OnRunStart func(NodeEvent)
	OnRunDone  func(NodeEvent)
	OnRunFail  func(NodeEvent)
	OnSignal   func(SignalEvent)
}
