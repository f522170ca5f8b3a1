// Package testutil provides shared test helpers for setting up databases and providers.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/notepad/internal/notify"
	"github.com/starford/notepad/internal/provider"
	"github.com/starford/notepad/internal/resource"
	"github.com/starford/notepad/internal/store"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestStore creates a temporary SQLite database that is automatically cleaned up.
func TestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notepad-test-*.db")
	require.NoError(t, err)
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	opts = append([]store.Option{store.WithLogger(Logger())}, opts...)
	st, err := store.Open(context.Background(), dbFile.Name(), resource.NewRouter(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// TestProvider wires a provider over a temporary database and a running
// notifier.
func TestProvider(t *testing.T, opts ...store.Option) *provider.Provider {
	t.Helper()
	router := resource.NewRouter()
	st := TestStore(t, opts...)
	n := notify.NewNotifier(router, Logger())
	t.Cleanup(n.Close)
	return provider.New(router, st, n, Logger())
}
