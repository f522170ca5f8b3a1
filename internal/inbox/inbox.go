// Package inbox turns text files dropped into a directory into notes.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notepad/internal/checksum"
	"github.com/starford/notepad/internal/models"
	"github.com/starford/notepad/internal/parser"
	"github.com/starford/notepad/internal/resource"
	"github.com/starford/notepad/internal/storage"
	"github.com/starford/notepad/internal/store"
)

// FailedDir is where files that could not be ingested are moved, relative
// to the inbox root.
const FailedDir = "failed"

// settle is how long a file must stay quiet before it is ingested, so
// partially written files are not picked up.
const settle = 200 * time.Millisecond

// Inserter creates notes.
type Inserter interface {
	Insert(ctx context.Context, uri string, v store.Values) (int64, error)
}

// Inbox ingests note files from a directory.
type Inbox struct {
	notes  Inserter
	files  storage.Provider
	logger *slog.Logger

	mu sync.Mutex
	// ingested maps a path to the checksum of the content already turned
	// into a note, for files that could not be removed afterwards.
	ingested map[string]string
}

// New creates an inbox rooted at dir, creating the directory if needed.
func New(notes Inserter, dir string, logger *slog.Logger) (*Inbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inbox: create dir: %w", err)
	}
	files, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	return NewWithFiles(notes, files, logger), nil
}

// NewWithFiles creates an inbox over an existing file provider.
func NewWithFiles(notes Inserter, files storage.Provider, logger *slog.Logger) *Inbox {
	return &Inbox{
		notes:    notes,
		files:    files,
		logger:   logger,
		ingested: make(map[string]string),
	}
}

// Drain ingests every note file currently in the inbox and returns how many
// notes were created.
func (in *Inbox) Drain(ctx context.Context) (int, error) {
	list, err := in.files.List("")
	if err != nil {
		return 0, fmt.Errorf("inbox: %w", err)
	}
	created := 0
	for _, f := range list {
		if in.Ingest(ctx, f.Path) {
			created++
		}
	}
	return created, nil
}

// Ingest turns one file into a note and removes it. Files that cannot be
// parsed or inserted are moved to FailedDir. It reports whether a note was
// created; empty files are left in place, and a file whose content was
// already ingested is not ingested again.
func (in *Inbox) Ingest(ctx context.Context, rel string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	data, err := in.files.Read(rel)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			in.logger.Warn("inbox: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		return false
	}
	if len(data) == 0 {
		in.logger.Debug("inbox: skipping empty file", slog.String("path", rel))
		return false
	}

	sum := checksum.Sum(data)
	if in.ingested[rel] == sum {
		in.logger.Debug("inbox: skipping already ingested file", slog.String("path", rel))
		return false
	}

	id, err := in.insert(ctx, data)
	if err != nil {
		in.logger.Warn("inbox: ingest failed",
			slog.String("path", rel),
			slog.String("error", err.Error()))
		in.quarantine(rel)
		return false
	}

	if err := in.files.Delete(rel); err != nil {
		in.logger.Error("inbox: remove ingested file failed",
			slog.String("path", rel),
			slog.Int64("id", id),
			slog.String("error", err.Error()))
		if !in.quarantine(rel) {
			in.ingested[rel] = sum
		}
	} else {
		delete(in.ingested, rel)
	}
	in.logger.Info("inbox: note created",
		slog.String("path", rel),
		slog.String("uri", resource.ItemURI(id)))
	return true
}

func (in *Inbox) insert(ctx context.Context, data []byte) (int64, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return 0, err
	}
	v := store.Values{resource.FieldBody: res.Body}
	if res.Title != "" {
		v[resource.FieldTitle] = res.Title
	}
	if res.Category != "" {
		if !models.ValidCategory(res.Category) {
			return 0, fmt.Errorf("unknown category %q", res.Category)
		}
		v[resource.FieldCategory] = res.Category
	}
	return in.notes.Insert(ctx, resource.NotesPath, v)
}

// quarantine moves rel into FailedDir and reports whether it succeeded.
func (in *Inbox) quarantine(rel string) bool {
	dst := filepath.Join(FailedDir, filepath.Base(rel))
	if err := in.files.Move(rel, dst); err != nil {
		in.logger.Error("inbox: move to failed dir",
			slog.String("path", rel),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// Watch ingests existing files, then watches the inbox until ctx is
// cancelled. Files are ingested once they have been quiet for a short
// settle period.
func (in *Inbox) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := in.files.Root()
	if err := w.Add(root); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", root, err)
	}
	in.logger.Info("inbox: started", slog.String("root", root))

	if n, err := in.Drain(ctx); err != nil {
		in.logger.Warn("inbox: initial drain failed", slog.String("error", err.Error()))
	} else if n > 0 {
		in.logger.Info("inbox: ingested existing files", slog.Int("count", n))
	}

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func(rel string) {
		pending[rel] = struct{}{}
		if settleTimer == nil {
			settleTimer = time.NewTimer(settle)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			in.logger.Info("inbox: stopped")
			return nil

		case <-settleCh:
			for rel := range pending {
				in.Ingest(ctx, rel)
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !storage.IsNoteFile(ev.Name) {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			schedule(rel)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
