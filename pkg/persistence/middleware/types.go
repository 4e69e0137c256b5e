// Package middleware wraps snapshot stores with cross-cutting behavior
// such as encryption at rest and value redaction.
package middleware

import "github.com/calyptra/flume/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain applies middlewares right to left, so the first one listed sees
// calls first.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
