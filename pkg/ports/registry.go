package ports

// NodeFactory constructs a node under the given label.
type NodeFactory[N any] func(label string) (N, error)

// NodeResolver resolves a package identifier plus class name to a node
// constructor. The engine stores only the identifier string as metadata on
// nodes that came from a resolver.
type NodeResolver[N any] interface {
	Resolve(packageID, className string) (NodeFactory[N], error)
}
