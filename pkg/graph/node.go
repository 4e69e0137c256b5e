package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calyptra/flume/pkg/ports"
)

// Node is a unit of computation in a dataflow graph. It exposes typed data
// channels and control-flow signal channels, carries the run/fail state
// machine, and may defer its computation to an executor.
//
// All graph bookkeeping (connections, labels, structure) is single-threaded
// by design; the only concurrency boundary is executor submission, whose
// completion commits output atomically with respect to this one node.
type Node interface {
	Label() string
	SetLabel(label string) error
	Parent() *Composite
	Path() string
	Root() Node

	Inputs() *Inputs
	Outputs() *Outputs
	Signals() *Signals

	Running() bool
	Failed() bool
	Ready() bool
	ReadinessReport() string

	PackageIdentifier() string
	SetPackageIdentifier(id string)

	Executor() ports.Executor
	SetExecutor(ex ports.Executor)
	Future() ports.Future

	// SetInputValues updates input channels without running anything.
	SetInputValues(values Values) error

	// Run is the master execution entry point; see RunOptions.
	Run(opts RunOptions) (any, error)
	// Execute runs right here, right now, with the input as-is: no
	// upstream runs, no fetch, no readiness check, forced local, no ran
	// signal. The debug/force path.
	Execute(values Values) (any, error)
	// Pull runs all upstream data dependencies in the local scope, then
	// this node, without triggering anything downstream.
	Pull(values Values) (any, error)
	// Call is Pull with parent scopes pulled first, recursively to the
	// graph root.
	Call(values Values) (any, error)

	// Disconnect severs every data and signal connection on this node.
	Disconnect()

	// Activate is the second phase of construction: the owning composite
	// (or top-level factory) invokes it once the structure is wired, after
	// which run-after-activate decisions are made. A readiness failure
	// during an auto-run exits cleanly.
	Activate() error

	core() *nodeCore
}

// RunOptions controls a single Run invocation. The zero value runs with
// everything off; RunDefaults is the conventional push configuration.
type RunOptions struct {
	// RunDataTree first runs all upstream data dependencies (pull).
	RunDataTree bool
	// RunParentTrees recurses the pull into parent scopes first.
	RunParentTrees bool
	// FetchInput updates each input from its first data-holding source.
	FetchInput bool
	// CheckReadiness rejects the run with a ReadinessError if the node is
	// not ready after fetching.
	CheckReadiness bool
	// ForceLocal ignores any assigned executor.
	ForceLocal bool
	// EmitRan fires the ran signal after a successful commit.
	EmitRan bool
	// Values are applied to the input channels before anything else, so
	// graph-fetched data overrides them by default.
	Values Values
}

// RunDefaults is the configuration used by signal-triggered (push) runs.
func RunDefaults() RunOptions {
	return RunOptions{FetchInput: true, CheckReadiness: true, EmitRan: true}
}

// opFunc is the actual computation of a concrete node kind. It receives a
// snapshot of the input values and returns output values keyed by output
// channel label. It must not touch graph structure: it may run on a worker
// goroutine when an executor is assigned.
type opFunc func(in Values) (Values, error)

// nodeCore carries the state machine shared by every node kind.
type nodeCore struct {
	semantics
	inputs  *Inputs
	outputs *Outputs
	signals *Signals
	pkgID   string

	mu      sync.Mutex // guards flags, future and output commit
	running bool
	failed  bool

	executor ports.Executor
	future   ports.Future

	runAfterActivate bool
	isParentmost     bool

	self Node
	op   opFunc
}

func (n *nodeCore) init(self Node, label string, op opFunc) error {
	if err := validateLabel(label); err != nil {
		return err
	}
	n.semantics = semantics{owner: self, label: label}
	n.inputs = newInputs()
	n.outputs = newOutputs()
	n.signals = newSignals(self, func() error {
		_, err := self.Run(RunDefaults())
		return err
	})
	n.self = self
	n.op = op
	return nil
}

func (n *nodeCore) core() *nodeCore { return n }

func (n *nodeCore) Inputs() *Inputs   { return n.inputs }
func (n *nodeCore) Outputs() *Outputs { return n.outputs }
func (n *nodeCore) Signals() *Signals { return n.signals }

// SetLabel renames the node. Inside a composite the registry entry moves
// with it; a sibling collision rejects the rename.
func (n *nodeCore) SetLabel(label string) error {
	if label == n.label {
		return nil
	}
	if err := validateLabel(label); err != nil {
		return err
	}
	if n.parent != nil {
		return n.parent.renameChild(n.label, label)
	}
	n.label = label
	return nil
}

func (n *nodeCore) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

func (n *nodeCore) Failed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.failed
}

// Ready reports whether the node may run: neither running nor failed, and
// every data input holds hint-conforming data. Readiness is recomputed
// from the flags on every call; a successful run is the only reset.
func (n *nodeCore) Ready() bool {
	n.mu.Lock()
	running, failed := n.running, n.failed
	n.mu.Unlock()
	return !running && !failed && n.inputs.Ready()
}

// ReadinessReport renders the per-input ready state, the same text a
// ReadinessError carries.
func (n *nodeCore) ReadinessReport() string {
	return n.readinessError().Error()
}

// readinessChecker lets node kinds refine what "ready" means; composites
// consult the child channels backing their exposed IO.
type readinessChecker interface {
	readinessError() *ReadinessError
}

func (n *nodeCore) readinessError() *ReadinessError {
	n.mu.Lock()
	running, failed := n.running, n.failed
	n.mu.Unlock()
	re := &ReadinessError{Label: n.label, Running: running, Failed: failed}
	for _, in := range n.inputs.All() {
		re.Inputs = append(re.Inputs, InputReadiness{Label: in.Label(), Ready: in.Ready()})
	}
	return re
}

func (n *nodeCore) PackageIdentifier() string      { return n.pkgID }
func (n *nodeCore) SetPackageIdentifier(id string) { n.pkgID = id }

func (n *nodeCore) Executor() ports.Executor { return n.executor }

// SetExecutor assigns (or clears, with nil) the executor this node submits
// its computation to. Executor-backed nodes only participate in push
// execution; the pull path rejects them.
func (n *nodeCore) SetExecutor(ex ports.Executor) { n.executor = ex }

// Future returns the pending handle of the current or most recent deferred
// run, or nil if the node never ran deferred.
func (n *nodeCore) Future() ports.Future {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.future
}

// SetInputValues applies the given values to the matching input channels.
// An unknown label is an error and nothing else is applied after it.
func (n *nodeCore) SetInputValues(values Values) error {
	for label, v := range values {
		in := n.inputs.Get(label)
		if in == nil {
			return fmt.Errorf("%s has no input channel %q: %w", n.Path(), label, ErrNotFound)
		}
		in.Set(v)
	}
	return nil
}

// Run executes the node. Effect order: value overrides, optional upstream
// pull, optional input fetch, optional readiness check, then the
// computation itself, output commit and optional ran emission. With an
// executor assigned (and ForceLocal off) it returns a pending future
// immediately; the future resolves to the same value a local run returns.
func (n *nodeCore) Run(opts RunOptions) (any, error) {
	if err := n.SetInputValues(opts.Values); err != nil {
		return nil, err
	}
	if opts.RunDataTree {
		if err := n.runDataTree(opts.RunParentTrees); err != nil {
			return nil, err
		}
	}
	if opts.FetchInput {
		n.inputs.Fetch()
	}
	if opts.CheckReadiness && !n.self.Ready() {
		return nil, n.self.(readinessChecker).readinessError()
	}
	in := n.inputs.Values()
	if n.executor == nil || opts.ForceLocal {
		return n.runLocal(in, opts.EmitRan)
	}
	return n.runDeferred(in, opts.EmitRan)
}

func (n *nodeCore) Execute(values Values) (any, error) {
	return n.Run(RunOptions{ForceLocal: true, Values: values})
}

func (n *nodeCore) Pull(values Values) (any, error) {
	return n.Run(RunOptions{
		RunDataTree:    true,
		FetchInput:     true,
		CheckReadiness: true,
		Values:         values,
	})
}

func (n *nodeCore) Call(values Values) (any, error) {
	return n.Run(RunOptions{
		RunDataTree:    true,
		RunParentTrees: true,
		FetchInput:     true,
		CheckReadiness: true,
		Values:         values,
	})
}

func (n *nodeCore) runLocal(in Values, emitRan bool) (any, error) {
	n.mu.Lock()
	n.running = true
	n.mu.Unlock()
	n.emitStart(false)

	started := time.Now()
	out, err := n.op(in)
	return n.finish(out, err, emitRan, time.Since(started))
}

func (n *nodeCore) runDeferred(in Values, emitRan bool) (any, error) {
	n.mu.Lock()
	n.running = true
	n.mu.Unlock()
	n.emitStart(true)

	started := time.Now()
	pending := newPending()
	inner := n.executor.Submit(func() (any, error) {
		return n.op(in)
	})

	n.mu.Lock()
	n.future = pending
	n.mu.Unlock()

	// The callback may fire on whichever thread services the future;
	// output commit and signal emission happen there, atomically with
	// respect to this node.
	inner.AddDoneCallback(func(f ports.Future) {
		res, err := f.Result(context.Background())
		var out Values
		if err == nil {
			var ok bool
			if out, ok = res.(Values); !ok && res != nil {
				err = fmt.Errorf("%s: executor returned %T, want graph.Values", n.Path(), res)
			}
		}
		value, err := n.finish(out, err, emitRan, time.Since(started))
		pending.resolve(value, err)
	})
	return pending, nil
}

// finish commits the run result: on success the output values land on the
// output channels and running clears; on error failed is set before the
// error propagates. The ran signal, if requested, fires after the commit.
func (n *nodeCore) finish(out Values, err error, emitRan bool, elapsed time.Duration) (any, error) {
	n.mu.Lock()
	if err != nil {
		n.failed = true
		n.running = false
		n.mu.Unlock()
		n.emitFail(err, elapsed)
		return nil, err
	}
	for label, v := range out {
		if ch := n.outputs.Get(label); ch != nil {
			ch.Set(v)
		}
	}
	n.failed = false
	n.running = false
	n.mu.Unlock()
	n.emitDone(elapsed)

	if emitRan {
		if err := n.signals.Ran.Emit(); err != nil {
			return nil, err
		}
	}
	return n.outputValue(), nil
}

// outputValue is what a completed run returns: the bare value when the
// node has exactly one output, otherwise the full labelled record.
func (n *nodeCore) outputValue() any {
	if n.outputs.Len() == 1 {
		return n.outputs.All()[0].Value()
	}
	return n.outputs.Values()
}

// Disconnect severs all data and signal connections, leaving the channels
// valid but connection-less.
func (n *nodeCore) Disconnect() {
	for _, in := range n.inputs.All() {
		in.DisconnectAll()
	}
	for _, out := range n.outputs.All() {
		out.DisconnectAll()
	}
	n.signals.DisconnectAll()
}

func (n *nodeCore) Activate() error {
	if !n.runAfterActivate {
		return nil
	}
	_, err := n.self.Run(RunDefaults())
	var re *ReadinessError
	if errors.As(err, &re) {
		// Not ready yet is fine at activation time; the graph will feed
		// the node later.
		return nil
	}
	return err
}

// hookCarrier is implemented by graph roots that carry observability
// hooks and a logger (the Workflow).
type hookCarrier interface {
	runtimeHooks() *Hooks
	runtimeLogger() *slog.Logger
}

func (n *nodeCore) carrier() hookCarrier {
	if hc, ok := n.Root().(hookCarrier); ok {
		return hc
	}
	return nil
}

func (n *nodeCore) emitStart(deferred bool) {
	hc := n.carrier()
	if hc == nil {
		return
	}
	if log := hc.runtimeLogger(); log != nil {
		log.Debug("node run start", "node", n.Path(), "deferred", deferred)
	}
	if h := hc.runtimeHooks(); h != nil && h.OnRunStart != nil {
		h.OnRunStart(NodeEvent{Label: n.label, Path: n.Path(), Deferred: deferred})
	}
}

func (n *nodeCore) emitDone(elapsed time.Duration) {
	hc := n.carrier()
	if hc == nil {
		return
	}
	if log := hc.runtimeLogger(); log != nil {
		log.Debug("node run done", "node", n.Path(), "duration", elapsed)
	}
	if h := hc.runtimeHooks(); h != nil && h.OnRunDone != nil {
		h.OnRunDone(NodeEvent{Label: n.label, Path: n.Path(), Duration: elapsed})
	}
}

func (n *nodeCore) emitFail(err error, elapsed time.Duration) {
	hc := n.carrier()
	if hc == nil {
		return
	}
	if log := hc.runtimeLogger(); log != nil {
		log.Error("node run failed", "node", n.Path(), "err", err)
	}
	if h := hc.runtimeHooks(); h != nil && h.OnRunFail != nil {
		h.OnRunFail(NodeEvent{Label: n.label, Path: n.Path(), Duration: elapsed, Err: err})
	}
}

// pending is the future handle a deferred run returns. It resolves, after
// output commit and signal emission, to the same value a local run would
// have returned.
type pending struct {
	mu        sync.Mutex
	done      chan struct{}
	value     any
	err       error
	callbacks []func(ports.Future)
}

func newPending() *pending {
	return &pending{done: make(chan struct{})}
}

func (p *pending) resolve(value any, err error) {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		return
	default:
	}
	p.value, p.err = value, err
	close(p.done)
	callbacks := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(p)
	}
}

// AddDoneCallback registers fn to run when the future resolves; if it
// already has, fn runs immediately on the calling goroutine.
func (p *pending) AddDoneCallback(fn func(ports.Future)) {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		fn(p)
		return
	default:
	}
	p.callbacks = append(p.callbacks, fn)
	p.mu.Unlock()
}

// Result blocks until the future resolves or the context is done.
func (p *pending) Result(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the future has resolved.
func (p *pending) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

var _ ports.Future = (*pending)(nil)
