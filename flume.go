package flume

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/calyptra/flume/internal/compiler"
	"github.com/calyptra/flume/pkg/graph"
	"github.com/calyptra/flume/pkg/nodes/std"
	"github.com/calyptra/flume/pkg/ports"
	"github.com/calyptra/flume/pkg/registry"
	"github.com/calyptra/flume/pkg/schema"
)

// Version is the library version, set at build time for releases.
var Version = "dev"

// Engine is the high-level entry point for the Flume library: a workflow
// loaded from a declarative definition, wired to a node registry and
// optional runtime collaborators.
type Engine struct {
	workflow *graph.Workflow
	registry *registry.Registry
	resolver ports.NodeResolver[graph.Node]
	hooks    *graph.Hooks
	logger   *slog.Logger
	store    ports.SnapshotStore
	Name     string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithHooks registers run lifecycle hooks for every node in the graph.
func WithHooks(hooks *graph.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore attaches a snapshot store, enabling Save and Load.
func WithStore(store ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithResolver injects a custom node resolver, bypassing the default
// registry (which carries only the standard node library).
func WithResolver(r ports.NodeResolver[graph.Node]) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithRegistry uses the given registry for node resolution. The standard
// node library is not added implicitly.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
		e.resolver = r
	}
}

// New initializes an Engine from a YAML workflow definition file.
// By default nodes resolve against a registry pre-loaded with the
// standard library under "flume.nodes.std".
func New(definitionPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.resolver == nil {
		reg := registry.NewRegistry()
		std.Register(reg)
		eng.registry = reg
		eng.resolver = reg
	}
	// Keep a default logger so the workflow never carries nil.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	data, err := os.ReadFile(definitionPath)
	if err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}
	def, err := compiler.NewParser().Parse(data)
	if err != nil {
		return nil, err
	}
	eng.Name = def.Label
	eng.logger = eng.logger.With("graph", eng.Name)

	wfOpts := []graph.WorkflowOption{
		graph.WithLogger(eng.logger),
	}
	if eng.hooks != nil {
		wfOpts = append(wfOpts, graph.WithHooks(eng.hooks))
	}
	if eng.store != nil {
		wfOpts = append(wfOpts, graph.WithStore(eng.store))
	}

	wf, err := compiler.NewBuilder(eng.resolver).Build(def, wfOpts...)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", filepath.Base(definitionPath), err)
	}
	eng.workflow = wf
	return eng, nil
}

// FromWorkflow wraps an already constructed workflow.
func FromWorkflow(wf *graph.Workflow, opts ...Option) *Engine {
	eng := &Engine{workflow: wf, Name: wf.Label()}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.store != nil {
		wf.SetStore(eng.store)
	}
	return eng
}

// Workflow exposes the underlying graph for direct manipulation.
func (e *Engine) Workflow() *graph.Workflow {
	return e.workflow
}

// Registry returns the default registry, or nil when a custom resolver
// was injected.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Run executes the graph in dependency order and returns the output
// record.
func (e *Engine) Run() (graph.Values, error) {
	return e.workflow.Run()
}

// SetInputValues presets exposed workflow inputs before a run.
func (e *Engine) SetInputValues(values graph.Values) error {
	return e.workflow.SetInputValues(values)
}

// Snapshot captures the current graph state.
func (e *Engine) Snapshot() (*schema.Snapshot, error) {
	return e.workflow.Snapshot()
}

// Save persists the graph state under the given key.
func (e *Engine) Save(ctx context.Context, key string) error {
	return e.workflow.Save(ctx, key)
}

// Load restores graph state saved under the given key.
func (e *Engine) Load(ctx context.Context, key string) error {
	return e.workflow.Load(ctx, key)
}
