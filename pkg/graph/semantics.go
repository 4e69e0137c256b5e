package graph

import (
	"fmt"
	"strings"
)

// PathDelimiter separates node labels in a graph path.
const PathDelimiter = "/"

// portDelimiter separates a child label from a channel label in composite
// IO maps ("child__channel").
const portDelimiter = "__"

// semantics tracks a node's label and its place in the ownership tree.
// Children hold a plain back-reference to their parent; ownership itself
// lives in the composite's child registry.
type semantics struct {
	owner  Node
	label  string
	parent *Composite
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if strings.Contains(label, PathDelimiter) {
		return fmt.Errorf("label %q must not contain %q", label, PathDelimiter)
	}
	if strings.Contains(label, portDelimiter) {
		return fmt.Errorf("label %q must not contain %q", label, portDelimiter)
	}
	return nil
}

func (s *semantics) Label() string { return s.label }

func (s *semantics) Parent() *Composite { return s.parent }

// Path is the delimited chain of labels from the graph root down to the
// owner, e.g. "/wf/macro/adder".
func (s *semantics) Path() string {
	if s.parent == nil {
		return PathDelimiter + s.label
	}
	return s.parent.Path() + PathDelimiter + s.label
}

// Root is the parentmost node in the ownership tree; may be the owner.
func (s *semantics) Root() Node {
	if s.parent == nil {
		return s.owner
	}
	return s.parent.Root()
}
