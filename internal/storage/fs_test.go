package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDir(t)
	content := []byte("Hello\n\nWorld\n")
	require.NoError(t, s.Write("note.txt", content))

	got, err := s.Read("note.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDir(t)
	require.NoError(t, s.Write("a/b/c.md", []byte("deep")))

	got, err := s.Read("a/b/c.md")
	require.NoError(t, err)
	assert.Equal(t, "deep", string(got))
}

func TestDelete(t *testing.T) {
	s := tempDir(t)
	require.NoError(t, s.Write("del.md", []byte("bye")))
	require.NoError(t, s.Delete("del.md"))

	_, err := s.Read("del.md")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMove(t *testing.T) {
	s := tempDir(t)
	require.NoError(t, s.Write("old.txt", []byte("data")))
	require.NoError(t, s.Move("old.txt", "failed/old.txt"))

	got, err := s.Read("failed/old.txt")
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	_, err = s.Read("old.txt")
	assert.Error(t, err, "old path should not exist")
}

func TestList(t *testing.T) {
	s := tempDir(t)
	require.NoError(t, s.Write("a.md", []byte("a")))
	require.NoError(t, s.Write("sub/b.md", []byte("b")))
	require.NoError(t, s.Write("c.TXT", []byte("ccc")))
	require.NoError(t, s.Write("image.png", []byte("not a note")))
	require.NoError(t, s.Write(".hidden.txt", []byte("hidden")))

	// Make the order independent of write timing.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.Root(), "c.TXT"), past, past))

	items, err := s.List("")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c.TXT", items[0].Path)
	assert.Equal(t, int64(3), items[0].Size)
	assert.Equal(t, "a.md", items[1].Path)

	sub, err := s.List("sub")
	require.NoError(t, err)
	require.Len(t, sub, 1)
	assert.Equal(t, filepath.Join("sub", "b.md"), sub[0].Path)
}

func TestIsNoteFile(t *testing.T) {
	for name, want := range map[string]bool{
		"a.txt":           true,
		"b.md":            true,
		"C.MD":            true,
		"photo.jpg":       false,
		".draft.txt":      false,
		".notepad-tmp-12": false,
		"noext":           false,
	} {
		assert.Equal(t, want, IsNoteFile(name), name)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDir(t)

	for _, p := range []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	} {
		_, err := s.Read(p)
		assert.Error(t, err, "read %q", p)
		assert.Error(t, s.Write(p, []byte("x")), "write %q", p)
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempDir(t)
	require.NoError(t, s.Write("atomic.md", []byte("first content")))

	updated := []byte("updated content")
	require.NoError(t, s.Write("atomic.md", updated))
	got, err := s.Read("atomic.md")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	matches, err := filepath.Glob(filepath.Join(s.root, tempPrefix+"*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "leftover temp files")
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestNewFS_FileNotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := NewFS(path)
	assert.Error(t, err)
}
