package internal

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "notes.db")
	cfg.SQLite.SeedSamples = true
	return cfg
}

func TestExport_SingleNoteToWriter(t *testing.T) {
	var buf bytes.Buffer

	n, err := Export(context.Background(), ExportRequest{ID: 1, Out: &buf},
		WithConfig(seededConfig(t)), WithLogOutput(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Welcome to Notepad\n\nA simple note taking app", buf.String())
}

func TestExport_AllNotesToDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	n, err := Export(context.Background(), ExportRequest{Dir: dir},
		WithConfig(seededConfig(t)), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	data, err := os.ReadFile(filepath.Join(dir, "2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Work notes\n\nTasks and notes about work", string(data))
}

func TestExport_MissingNote(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export(context.Background(), ExportRequest{ID: 99, Out: &buf},
		WithConfig(seededConfig(t)), WithLogOutput(io.Discard))
	assert.Error(t, err)
}

func TestRun_RequiresConfig(t *testing.T) {
	assert.Error(t, Run(context.Background()))
}
