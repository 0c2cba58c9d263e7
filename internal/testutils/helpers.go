package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/internal/seed"
	"github.com/aretw0/pressline/pkg/adapters/memory"
	"github.com/stretchr/testify/require"
)

// SeededStore returns a memory store holding the builtin seed flows.
// It fails the test immediately on error.
func SeededStore(t *testing.T) *memory.Store {
	t.Helper()

	graphs, err := seed.Load("")
	require.NoError(t, err, "Failed to load builtin seed")

	store := memory.NewStore()
	require.NoError(t, seed.Apply(context.Background(), store, graphs, logging.NewNop()), "Failed to apply seed")
	return store
}

// SQLitePath returns the absolute path of a fresh sqlite database file
// inside a temporary directory.
func SQLitePath(t *testing.T) string {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join(t.TempDir(), "pressline.db"))
	require.NoError(t, err, "Failed to get absolute path for temp db")
	return absPath
}
