// Package std is the built-in node library: small arithmetic and
// plumbing nodes, plus registration under the "flume.nodes.std" package
// identifier so definitions and snapshots can rebuild them by name.
package std

import (
	"fmt"
	"time"

	"github.com/calyptra/flume/pkg/graph"
	"github.com/calyptra/flume/pkg/registry"
)

// PackageID is the identifier the standard nodes register under.
const PackageID = "flume.nodes.std"

var numHint = graph.Union(
	graph.HintOf[int](),
	graph.HintOf[float64](),
)

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// NewAdd builds a node computing sum = x + y.
func NewAdd(label string) (*graph.Function, error) {
	return graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			x, err := asFloat(in["x"])
			if err != nil {
				return nil, err
			}
			y, err := asFloat(in["y"])
			if err != nil {
				return nil, err
			}
			return graph.Values{"sum": x + y}, nil
		},
		graph.In("x", numHint),
		graph.In("y", numHint),
		graph.Out("sum", graph.HintOf[float64]()),
	)
}

// NewMultiply builds a node computing product = x * y.
func NewMultiply(label string) (*graph.Function, error) {
	return graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			x, err := asFloat(in["x"])
			if err != nil {
				return nil, err
			}
			y, err := asFloat(in["y"])
			if err != nil {
				return nil, err
			}
			return graph.Values{"product": x * y}, nil
		},
		graph.In("x", numHint),
		graph.In("y", numHint),
		graph.Out("product", graph.HintOf[float64]()),
	)
}

// NewAddOne builds a node computing y = x + 1.
func NewAddOne(label string) (*graph.Function, error) {
	return graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			x, err := asFloat(in["x"])
			if err != nil {
				return nil, err
			}
			return graph.Values{"y": x + 1}, nil
		},
		graph.In("x", numHint),
		graph.Out("y", graph.HintOf[float64]()),
	)
}

// NewNegate builds a node computing y = -x.
func NewNegate(label string) (*graph.Function, error) {
	return graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			x, err := asFloat(in["x"])
			if err != nil {
				return nil, err
			}
			return graph.Values{"y": -x}, nil
		},
		graph.In("x", numHint),
		graph.Out("y", graph.HintOf[float64]()),
	)
}

// NewIdentity builds an unconstrained passthrough node.
func NewIdentity(label string) (*graph.Function, error) {
	return graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			return graph.Values{"out": in["in"]}, nil
		},
		graph.In("in", nil),
		graph.Out("out", nil),
	)
}

// NewSleep builds a node that waits the given number of milliseconds and
// passes its input through. Useful for exercising executors.
func NewSleep(label string) (*graph.Function, error) {
	return graph.NewFunction(label,
		func(in graph.Values) (graph.Values, error) {
			ms, err := asFloat(in["millis"])
			if err != nil {
				return nil, err
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return graph.Values{"out": in["in"]}, nil
		},
		graph.In("in", nil),
		graph.InWithDefault("millis", numHint, 10),
		graph.Out("out", nil),
	)
}

// Register adds the standard node classes to the registry.
func Register(r *registry.Registry) {
	register := func(class string, build func(string) (*graph.Function, error)) {
		r.Register(PackageID, class, func(label string) (graph.Node, error) {
			return build(label)
		})
	}
	register("Add", NewAdd)
	register("Multiply", NewMultiply)
	register("AddOne", NewAddOne)
	register("Negate", NewNegate)
	register("Identity", NewIdentity)
	register("Sleep", NewSleep)
}
