package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calyptra/flume/pkg/ports"
	"github.com/calyptra/flume/pkg/schema"
)

// Workflow is the parentmost composite: the living root of a graph under
// construction. It can never be adopted as a child, derives its execution
// order from data dependencies on every run, and carries the runtime
// collaborators (logger, hooks, snapshot store) for the whole tree.
type Workflow struct {
	Composite

	hooks  *Hooks
	logger *slog.Logger
	store  ports.SnapshotStore
}

// WorkflowOption configures a workflow at construction.
type WorkflowOption func(w *Workflow)

// WithLogger sets the structured logger node runs report to.
func WithLogger(l *slog.Logger) WorkflowOption {
	return func(w *Workflow) { w.logger = l }
}

// WithHooks installs run lifecycle hooks for every node in the tree.
func WithHooks(h *Hooks) WorkflowOption {
	return func(w *Workflow) { w.hooks = h }
}

// WithStore attaches a snapshot store for Save and Load.
func WithStore(s ports.SnapshotStore) WorkflowOption {
	return func(w *Workflow) { w.store = s }
}

// NewWorkflow builds an empty workflow root.
func NewWorkflow(label string, opts ...WorkflowOption) (*Workflow, error) {
	w := &Workflow{}
	if err := w.initComposite(w, label); err != nil {
		return nil, err
	}
	w.isParentmost = true
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Workflow) runtimeHooks() *Hooks { return w.hooks }

func (w *Workflow) runtimeLogger() *slog.Logger { return w.logger }

// Store returns the attached snapshot store, or nil.
func (w *Workflow) Store() ports.SnapshotStore { return w.store }

// SetStore attaches (or clears, with nil) the snapshot store.
func (w *Workflow) SetStore(s ports.SnapshotStore) { w.store = s }

// Add adopts the node and activates it, returning the node for chaining.
func (w *Workflow) Add(n Node) (Node, error) {
	if err := w.AddChild(n); err != nil {
		return nil, err
	}
	if err := n.Activate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Run executes the whole graph in dependency order and returns the output
// record: every exposed output channel that holds data, keyed by its
// composite-level label.
func (w *Workflow) Run() (Values, error) {
	// IO is re-derived at run time: the workflow is a living graph whose
	// exposure changes as children connect and disconnect.
	if err := w.rebuildIO(); err != nil {
		return nil, err
	}
	if _, err := w.nodeCore.Run(RunOptions{FetchInput: true, CheckReadiness: true}); err != nil {
		return nil, err
	}
	return w.outputs.Values(), nil
}

// Snapshot captures the workflow's current state as a storable projection.
func (w *Workflow) Snapshot() (*schema.Snapshot, error) {
	if err := w.rebuildIO(); err != nil {
		return nil, err
	}
	return SnapshotOf(w), nil
}

// Save captures the workflow's state and persists it under the given key.
func (w *Workflow) Save(ctx context.Context, key string) error {
	if w.store == nil {
		return fmt.Errorf("workflow %q has no snapshot store", w.Label())
	}
	if err := w.rebuildIO(); err != nil {
		return err
	}
	return w.store.Save(ctx, key, SnapshotOf(w))
}

// Load restores the workflow's state from the snapshot stored under key.
// The workflow's structure (children, labels, classes) must already match
// the snapshot; Load restores values and flags only.
func (w *Workflow) Load(ctx context.Context, key string) error {
	if w.store == nil {
		return fmt.Errorf("workflow %q has no snapshot store", w.Label())
	}
	snap, err := w.store.Load(ctx, key)
	if err != nil {
		return err
	}
	return Restore(w, snap)
}
