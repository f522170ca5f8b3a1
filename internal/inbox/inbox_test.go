package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notepad/internal/models"
	"github.com/starford/notepad/internal/provider"
	"github.com/starford/notepad/internal/storage"
	"github.com/starford/notepad/internal/testutil"
)

func testInbox(t *testing.T) (*Inbox, *provider.Provider, string) {
	t.Helper()
	p := testutil.TestProvider(t)
	dir := filepath.Join(t.TempDir(), "inbox")
	in, err := New(p, dir, testutil.Logger())
	require.NoError(t, err)
	return in, p, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func allNotes(t *testing.T, p *provider.Provider) []models.Note {
	t.Helper()
	rs, err := p.Query(context.Background(), "notes", nil, "", nil, "id ASC")
	require.NoError(t, err)
	return rs.Notes()
}

func TestDrain(t *testing.T) {
	in, p, dir := testInbox(t)

	writeFile(t, dir, "a.txt", "Groceries\n\nmilk\neggs\n")
	writeFile(t, dir, "b.md", "---\ntitle: Plan\ncategory: Work\n---\nShip it\n")
	writeFile(t, dir, "photo.jpg", "binary")

	n, err := in.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	notes := allNotes(t, p)
	require.Len(t, notes, 2)
	byTitle := map[string]models.Note{}
	for _, note := range notes {
		byTitle[note.Title] = note
	}
	assert.Equal(t, "milk\neggs", byTitle["Groceries"].Body)
	assert.Equal(t, models.CategoryGeneral, byTitle["Groceries"].Category)
	assert.Equal(t, "Ship it", byTitle["Plan"].Body)
	assert.Equal(t, models.CategoryWork, byTitle["Plan"].Category)

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "b.md"))
	assert.FileExists(t, filepath.Join(dir, "photo.jpg"))
}

func TestIngest_FailureQuarantines(t *testing.T) {
	in, p, dir := testInbox(t)

	writeFile(t, dir, "bad.txt", "---\ntitle: x\ncategory: Chores\n---\nbody\n")
	assert.False(t, in.Ingest(context.Background(), "bad.txt"))

	assert.NoFileExists(t, filepath.Join(dir, "bad.txt"))
	assert.FileExists(t, filepath.Join(dir, FailedDir, "bad.txt"))
	assert.Empty(t, allNotes(t, p))
}

func TestIngest_MalformedFrontmatterQuarantines(t *testing.T) {
	in, p, dir := testInbox(t)

	writeFile(t, dir, "broken.md", "---\ntitle: [unclosed\n---\nbody\n")
	assert.False(t, in.Ingest(context.Background(), "broken.md"))

	assert.FileExists(t, filepath.Join(dir, FailedDir, "broken.md"))
	assert.Empty(t, allNotes(t, p))
}

// stuckFS cannot remove or move files.
type stuckFS struct {
	*storage.FS
}

func (stuckFS) Delete(string) error       { return errors.New("read-only") }
func (stuckFS) Move(string, string) error { return errors.New("read-only") }

func TestIngest_UnremovableFileNotDuplicated(t *testing.T) {
	p := testutil.TestProvider(t)
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	require.NoError(t, err)
	in := NewWithFiles(p, stuckFS{fs}, testutil.Logger())

	writeFile(t, dir, "stuck.txt", "Once\n\nonly once\n")
	ctx := context.Background()

	assert.True(t, in.Ingest(ctx, "stuck.txt"))
	assert.False(t, in.Ingest(ctx, "stuck.txt"))
	n, err := in.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.Len(t, allNotes(t, p), 1)

	// New content under the same name is a new note.
	writeFile(t, dir, "stuck.txt", "Twice\n\nedited\n")
	assert.True(t, in.Ingest(ctx, "stuck.txt"))
	assert.Len(t, allNotes(t, p), 2)
}

func TestIngest_EmptyAndMissing(t *testing.T) {
	in, p, dir := testInbox(t)

	writeFile(t, dir, "empty.txt", "")
	assert.False(t, in.Ingest(context.Background(), "empty.txt"))
	assert.FileExists(t, filepath.Join(dir, "empty.txt"))

	assert.False(t, in.Ingest(context.Background(), "missing.txt"))
	assert.Empty(t, allNotes(t, p))
}

func TestWatch(t *testing.T) {
	in, p, dir := testInbox(t)
	writeFile(t, dir, "existing.txt", "Before start\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	require.Eventually(t, func() bool { return len(allNotes(t, p)) == 1 }, 3*time.Second, 20*time.Millisecond)

	writeFile(t, dir, "dropped.md", "# Dropped\n\nArrived while running\n")
	require.Eventually(t, func() bool { return len(allNotes(t, p)) == 2 }, 3*time.Second, 20*time.Millisecond)

	notes := allNotes(t, p)
	assert.Equal(t, "Before start", notes[0].Title)
	assert.Equal(t, "Dropped", notes[1].Title)
	assert.Equal(t, "Arrived while running", notes[1].Body)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "dropped.md"))
		return os.IsNotExist(err)
	}, 3*time.Second, 20*time.Millisecond)
}
