package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/models"
	"github.com/starford/notepad/internal/resource"
)

// Store executes scoped operations against the notes table.
//
// Mutations hold the write lock and run in a single transaction, so readers
// never observe a partially applied change. Queries share the read lock.
type Store struct {
	conn    *sql.DB
	router  *resource.Router
	logger  *slog.Logger
	now     func() time.Time
	version int

	mu sync.RWMutex
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Version returns the schema version the store runs at.
func (s *Store) Version() int {
	return s.version
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Query returns the rows of scope matching filter, restricted to the
// projection fields and ordered by sort. An empty projection selects every
// field the scope exposes; an empty sort orders by id, newest first.
func (s *Store) Query(ctx context.Context, scope resource.Scope, projection []string, filter string, args []any, sort string) (*ResultSet, error) {
	proj, err := s.router.Projection(scope)
	if err != nil {
		return nil, err
	}

	fields := projection
	if len(fields) == 0 {
		fields = proj.Fields()
	}
	selects := make([]string, len(fields))
	for i, f := range fields {
		col, ok := proj.Lookup(f)
		if !ok {
			return nil, fmt.Errorf("store: %w: unknown field %q", apperr.ErrInvalidProjection, f)
		}
		selects[i] = col.Select
	}

	where, bound, err := scopedWhere(scope, filter, args, proj)
	if err != nil {
		return nil, err
	}
	orderBy, err := compileSort(sort, proj)
	if err != nil {
		return nil, err
	}

	q := "SELECT " + strings.Join(selects, ", ") + " FROM " + tableNotes
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY " + orderBy

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, q, bound...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	rs := &ResultSet{Columns: append([]string(nil), fields...)}
	for rows.Next() {
		vals := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return rs, nil
}

// Get returns the full note with the given id.
func (s *Store) Get(ctx context.Context, id int64) (models.Note, error) {
	rs, err := s.Query(ctx, resource.Item(id), nil, "", nil, "")
	if err != nil {
		return models.Note{}, err
	}
	notes := rs.Notes()
	if len(notes) == 0 {
		return models.Note{}, fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	return notes[0], nil
}

// scopedWhere compiles the caller filter and, for a single-item scope,
// constrains it to that id.
func scopedWhere(scope resource.Scope, filter string, args []any, proj *resource.Projection) (string, []any, error) {
	where, bound, err := compileFilter(filter, args, proj)
	if err != nil {
		return "", nil, err
	}
	if scope.Kind != resource.KindItem {
		return where, bound, nil
	}
	idWhere := resource.ColumnID + " = ?"
	if where == "" {
		return idWhere, []any{scope.ID}, nil
	}
	return idWhere + " AND (" + where + ")", append([]any{scope.ID}, bound...), nil
}

// ResultSet is a detached snapshot of a query result.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	return len(rs.Rows)
}

// Records returns each row as a field-name keyed map.
func (rs *ResultSet) Records() []map[string]any {
	out := make([]map[string]any, len(rs.Rows))
	for i, row := range rs.Rows {
		rec := make(map[string]any, len(rs.Columns))
		for j, c := range rs.Columns {
			rec[c] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Notes converts rows to notes. Fields outside the projection stay zero; the
// live folder "name" field maps to Title.
func (rs *ResultSet) Notes() []models.Note {
	out := make([]models.Note, len(rs.Rows))
	for i, row := range rs.Rows {
		var n models.Note
		for j, c := range rs.Columns {
			switch c {
			case resource.FieldID:
				n.ID = asInt64(row[j])
			case resource.FieldTitle, resource.FieldName:
				n.Title = asString(row[j])
			case resource.FieldBody:
				n.Body = asString(row[j])
			case resource.FieldCreatedAt:
				n.CreatedAt = asInt64(row[j])
			case resource.FieldModifiedAt:
				n.ModifiedAt = asInt64(row[j])
			case resource.FieldCategory:
				n.Category = asString(row[j])
			}
		}
		out[i] = n
	}
	return out
}

// LiveFolderItems converts rows of the live folder view.
func (rs *ResultSet) LiveFolderItems() []models.LiveFolderItem {
	notes := rs.Notes()
	out := make([]models.LiveFolderItem, len(notes))
	for i, n := range notes {
		out[i] = models.LiveFolderItem{ID: n.ID, Name: n.Title}
	}
	return out
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return ""
	}
}
