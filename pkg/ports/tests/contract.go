// Package tests holds reusable contract suites for ports implementations.
package tests

import (
	"context"
	"testing"

	"github.com/calyptra/flume/pkg/ports"
	"github.com/calyptra/flume/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract verifies an adapter against the SnapshotStore
// contract.
func RunSnapshotStoreContract(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	snap := &schema.Snapshot{
		ClassName: "Function",
		Label:     "adder",
		Inputs: map[string]schema.Value{
			"x": {Present: true, Data: float64(1)},
			"y": {Present: false},
		},
		Outputs: map[string]schema.Value{
			"sum": {Present: true, Data: float64(3)},
		},
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "wf-1", snap))

		got, err := store.Load(ctx, "wf-1")
		require.NoError(t, err)
		assert.Equal(t, snap.ClassName, got.ClassName)
		assert.Equal(t, snap.Label, got.Label)
		assert.Equal(t, snap.Inputs["x"].Data, got.Inputs["x"].Data)
		assert.False(t, got.Inputs["y"].Present)
		assert.Equal(t, snap.Outputs["sum"].Data, got.Outputs["sum"].Data)
	})

	t.Run("LoadIsolation", func(t *testing.T) {
		got, err := store.Load(ctx, "wf-1")
		require.NoError(t, err)
		got.Inputs["x"] = schema.Value{Present: true, Data: float64(99)}

		again, err := store.Load(ctx, "wf-1")
		require.NoError(t, err)
		assert.Equal(t, float64(1), again.Inputs["x"].Data,
			"mutating a loaded snapshot must not leak into the store")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "wf-2", snap))
		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, "wf-1")
		assert.Contains(t, keys, "wf-2")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "wf-2"))
		_, err := store.Load(ctx, "wf-2")
		assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
	})

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "never-saved")
		assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
	})
}
