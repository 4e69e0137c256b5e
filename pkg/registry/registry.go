// Package registry maps package identifiers and class names to node
// constructors, so graphs loaded from definitions or snapshots can rebuild
// their nodes without importing the defining package directly.
package registry

import (
	"fmt"
	"sync"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/calyptra/flume/pkg/ports"
)

// Registry manages the available node classes.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ports.NodeFactory[graph.Node]
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ports.NodeFactory[graph.Node]),
	}
}

func key(packageID, className string) string {
	return packageID + "." + className
}

// Register adds a node class under the given package identifier.
// Re-registering the same class overwrites the previous factory.
func (r *Registry) Register(packageID, className string, factory ports.NodeFactory[graph.Node]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[key(packageID, className)] = factory
}

// Resolve returns the factory for the class, wrapped so that constructed
// nodes carry the package identifier they were resolved from.
func (r *Registry) Resolve(packageID, className string) (ports.NodeFactory[graph.Node], error) {
	r.mu.RLock()
	factory, ok := r.factories[key(packageID, className)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("node class not registered: %s", key(packageID, className))
	}
	return func(label string) (graph.Node, error) {
		n, err := factory(label)
		if err != nil {
			return nil, err
		}
		n.SetPackageIdentifier(packageID)
		return n, nil
	}, nil
}

// New resolves and immediately constructs a node.
func (r *Registry) New(packageID, className, label string) (graph.Node, error) {
	factory, err := r.Resolve(packageID, className)
	if err != nil {
		return nil, err
	}
	return factory(label)
}

// Classes lists the registered "package.Class" keys.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	return out
}

var _ ports.NodeResolver[graph.Node] = (*Registry)(nil)
