package compiler

import (
	"fmt"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/calyptra/flume/pkg/ports"
)

// Builder instantiates parsed definitions against a node resolver.
type Builder struct {
	resolver ports.NodeResolver[graph.Node]
}

// NewBuilder creates a builder backed by the given resolver.
func NewBuilder(resolver ports.NodeResolver[graph.Node]) *Builder {
	return &Builder{resolver: resolver}
}

// Build constructs a live workflow from the definition: resolve every
// node class, adopt the instances, wire the declared connections and
// apply the preset input values.
func (b *Builder) Build(def *Definition, opts ...graph.WorkflowOption) (*graph.Workflow, error) {
	wf, err := graph.NewWorkflow(def.Label, opts...)
	if err != nil {
		return nil, err
	}

	for _, nd := range def.Nodes {
		factory, err := b.resolver.Resolve(nd.Package, nd.Class)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.Label, err)
		}
		n, err := factory(nd.Label)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.Label, err)
		}
		if _, err := wf.Add(n); err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.Label, err)
		}
		if len(nd.Inputs) > 0 {
			if err := n.SetInputValues(graph.Values(nd.Inputs)); err != nil {
				return nil, fmt.Errorf("node %q: %w", nd.Label, err)
			}
		}
	}

	for _, cd := range def.Connections {
		if err := b.connect(wf, cd); err != nil {
			return nil, err
		}
	}

	if len(def.Inputs) > 0 {
		if err := wf.SetInputValues(graph.Values(def.Inputs)); err != nil {
			return nil, err
		}
	}
	return wf, nil
}

func (b *Builder) connect(wf *graph.Workflow, cd ConnectionDefinition) error {
	fromNode, fromChannel, err := splitRef(cd.From)
	if err != nil {
		return err
	}
	toNode, toChannel, err := splitRef(cd.To)
	if err != nil {
		return err
	}

	source := wf.Child(fromNode)
	target := wf.Child(toNode)
	if source == nil {
		return fmt.Errorf("connection source %q: %w", fromNode, graph.ErrNotFound)
	}
	if target == nil {
		return fmt.Errorf("connection target %q: %w", toNode, graph.ErrNotFound)
	}

	out := source.Outputs().Get(fromChannel)
	if out == nil {
		return fmt.Errorf("%s has no output %q: %w", fromNode, fromChannel, graph.ErrNotFound)
	}
	in := target.Inputs().Get(toChannel)
	if in == nil {
		return fmt.Errorf("%s has no input %q: %w", toNode, toChannel, graph.ErrNotFound)
	}
	if err := in.Connect(out); err != nil {
		return fmt.Errorf("wiring %s -> %s: %w", cd.From, cd.To, err)
	}
	return nil
}
