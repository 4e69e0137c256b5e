package graph

import (
	"fmt"
	"reflect"

	"github.com/calyptra/flume/pkg/schema"
)

// SnapshotOf captures the node's observable state as a flat projection:
// identity, run flags, every data channel's storable value and, for
// composites, the children recursively.
func SnapshotOf(n Node) *schema.Snapshot {
	snap := &schema.Snapshot{
		PackageIdentifier: n.PackageIdentifier(),
		ClassName:         className(n),
		Label:             n.Label(),
		Running:           n.Running(),
		Failed:            n.Failed(),
		Inputs:            make(map[string]schema.Value),
		Outputs:           make(map[string]schema.Value),
	}
	for _, in := range n.Inputs().All() {
		snap.Inputs[in.Label()] = storableValue(in.Value())
	}
	for _, out := range n.Outputs().All() {
		snap.Outputs[out.Label()] = storableValue(out.Value())
	}
	if c := asComposite(n); c != nil {
		snap.ChildOrder = append([]string(nil), c.order...)
		snap.Children = make(map[string]*schema.Snapshot, len(c.order))
		for _, label := range c.order {
			snap.Children[label] = SnapshotOf(c.children[label])
		}
	}
	return snap
}

// Restore applies a captured snapshot back onto a structurally matching
// node: channel values and run flags, recursing into composite children.
// A class or label mismatch anywhere in the tree fails before any value
// lands on that subtree.
func Restore(n Node, snap *schema.Snapshot) error {
	if err := checkShape(n, snap); err != nil {
		return err
	}
	apply(n, snap)
	return nil
}

// checkShape validates the whole tree before Restore mutates anything.
func checkShape(n Node, snap *schema.Snapshot) error {
	if got := className(n); got != snap.ClassName {
		return fmt.Errorf("%s: snapshot holds a %s, node is a %s", n.Path(), snap.ClassName, got)
	}
	if n.Label() != snap.Label {
		return fmt.Errorf("%s: snapshot label %q does not match", n.Path(), snap.Label)
	}
	for label := range snap.Inputs {
		if n.Inputs().Get(label) == nil {
			return fmt.Errorf("%s has no input channel %q: %w", n.Path(), label, ErrNotFound)
		}
	}
	for label := range snap.Outputs {
		if n.Outputs().Get(label) == nil {
			return fmt.Errorf("%s has no output channel %q: %w", n.Path(), label, ErrNotFound)
		}
	}
	c := asComposite(n)
	if len(snap.Children) > 0 && c == nil {
		return fmt.Errorf("%s: snapshot carries children but node is not a composite", n.Path())
	}
	for label, childSnap := range snap.Children {
		child := c.Child(label)
		if child == nil {
			return fmt.Errorf("%s has no child %q: %w", c.Path(), label, ErrNotFound)
		}
		if err := checkShape(child, childSnap); err != nil {
			return err
		}
	}
	return nil
}

func apply(n Node, snap *schema.Snapshot) {
	for label, v := range snap.Inputs {
		if v.Present {
			n.Inputs().Get(label).Set(v.Data)
		} else {
			n.Inputs().Get(label).Set(NoValue)
		}
	}
	for label, v := range snap.Outputs {
		if v.Present {
			n.Outputs().Get(label).Set(v.Data)
		} else {
			n.Outputs().Get(label).Set(NoValue)
		}
	}
	core := n.core()
	core.mu.Lock()
	core.running = snap.Running
	core.failed = snap.Failed
	core.mu.Unlock()

	if c := asComposite(n); c != nil {
		for label, childSnap := range snap.Children {
			apply(c.Child(label), childSnap)
		}
	}
}

func storableValue(v any) schema.Value {
	if !HasData(v) {
		return schema.Value{}
	}
	return schema.Value{Present: true, Data: v}
}

// className is the concrete node kind's type name, used for shape checks
// on restore and by resolvers on load.
func className(n Node) string {
	t := reflect.TypeOf(n)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func asComposite(n Node) *Composite {
	if holder, ok := n.(interface{ composite() *Composite }); ok {
		return holder.composite()
	}
	return nil
}
