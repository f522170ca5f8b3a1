// Package store implements the notes record store on SQLite: schema
// versioning and migration, projection-checked queries, and serialized
// mutations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/notepad/internal/models"
	"github.com/starford/notepad/internal/resource"
)

// CurrentVersion is the schema version this code reads and writes.
const CurrentVersion = 3

const tableNotes = "notes"

// createTableSQL returns the DDL for the notes table as it looks at version.
func createTableSQL(version int) string {
	ddl := `CREATE TABLE IF NOT EXISTS notes (
	_id      INTEGER PRIMARY KEY AUTOINCREMENT,
	title    TEXT,
	note     TEXT,
	created  INTEGER,
	modified INTEGER`
	if version >= 3 {
		ddl += `,
	category TEXT NOT NULL DEFAULT 'General'`
	}
	ddl += "\n);"
	if version >= 2 {
		ddl += "\nCREATE INDEX IF NOT EXISTS idx_notes_modified ON notes(modified);"
	}
	return ddl
}

type options struct {
	target     int
	logger     *slog.Logger
	now        func() time.Time
	sampleData bool
}

// Option configures Open.
type Option func(*options)

// WithTargetVersion sets the schema version Open brings the table to.
// Versions below CurrentVersion only serve to build legacy databases; the
// record store itself expects the current shape.
func WithTargetVersion(v int) Option {
	return func(o *options) {
		o.target = v
	}
}

// WithLogger sets the logger used for schema and write diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock overrides the time source for created/modified stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSampleData seeds a handful of example notes whenever the table is
// created from scratch, including after a destructive migration fallback.
func WithSampleData(enabled bool) Option {
	return func(o *options) {
		o.sampleData = enabled
	}
}

// Open opens (or creates) the SQLite database at path and brings the notes
// table to the target version, CurrentVersion unless WithTargetVersion says
// otherwise.
func Open(ctx context.Context, path string, router *resource.Router, opts ...Option) (*Store, error) {
	o := options{
		target: CurrentVersion,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := openConn(path)
	if err != nil {
		return nil, err
	}

	res, err := Migrate(ctx, conn, o.target, o.logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if o.sampleData && (res.Created || res.Recreated) {
		if err := seedSamples(ctx, conn, o.now()); err != nil {
			conn.Close()
			return nil, fmt.Errorf("store: seed samples: %w", err)
		}
		o.logger.Info("schema: inserted sample notes", slog.Int("count", len(sampleNotes)))
	}

	return &Store{
		conn:    conn,
		router:  router,
		logger:  o.logger,
		now:     o.now,
		version: res.Version,
	}, nil
}

func openConn(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return conn, nil
}

var sampleNotes = []models.Note{
	{Title: "Welcome to Notepad", Body: "A simple note taking app", Category: models.CategoryGeneral},
	{Title: "Work notes", Body: "Tasks and notes about work", Category: models.CategoryWork},
	{Title: "Personal ideas", Body: "Inspiration and ideas", Category: models.CategoryPersonal},
	{Title: "Project plan", Body: "Progress and schedule of the project", Category: models.CategoryWork},
}

func seedSamples(ctx context.Context, conn *sql.DB, now time.Time) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	ms := now.UnixMilli()
	for _, n := range sampleNotes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notes (title, note, created, modified, category) VALUES (?, ?, ?, ?, ?)`,
			n.Title, n.Body, ms, ms, n.Category); err != nil {
			return err
		}
	}
	return tx.Commit()
}
