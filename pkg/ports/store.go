package ports

import (
	"context"
	"errors"

	"github.com/calyptra/flume/pkg/schema"
)

// ErrSnapshotNotFound is returned when a snapshot key cannot be found in
// the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists graph-state projections. Implementations own the
// durable encoding; the engine only promises that re-applying a loaded
// snapshot restores observable state exactly.
type SnapshotStore interface {
	Save(ctx context.Context, key string, snap *schema.Snapshot) error
	Load(ctx context.Context, key string) (*schema.Snapshot, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}
