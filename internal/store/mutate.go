package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/models"
	"github.com/starford/notepad/internal/resource"
)

// Values carries field values for insert and update, keyed by field name
// ("title", "body", "category").
type Values map[string]any

// writableFields lists the caller-settable fields in the order they are
// written, with the column each one lands in.
var writableFields = []struct {
	field  string
	column string
}{
	{resource.FieldTitle, resource.ColumnTitle},
	{resource.FieldBody, resource.ColumnBody},
	{resource.FieldCategory, resource.ColumnCategory},
}

// Mutation reports the outcome of an update or delete.
type Mutation struct {
	Count int64
	IDs   []int64
}

// checkValues validates v and returns the text values by field name.
// Store-managed timestamps are dropped silently; id is never writable and
// created_at is writable only on insert, where it is overwritten anyway.
func checkValues(v Values) (map[string]string, error) {
	out := make(map[string]string, len(v))
	for k, raw := range v {
		switch k {
		case resource.FieldID:
			return nil, fmt.Errorf("store: %w: %q is assigned by the store", apperr.ErrInvalidValues, k)
		case resource.FieldCreatedAt, resource.FieldModifiedAt:
			continue
		case resource.FieldTitle, resource.FieldBody, resource.FieldCategory:
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("store: %w: %q must be a string, got %T", apperr.ErrInvalidValues, k, raw)
			}
			out[k] = s
		default:
			return nil, fmt.Errorf("store: %w: unknown field %q", apperr.ErrInvalidProjection, k)
		}
	}
	return out, nil
}

// Insert adds a note to the collection and returns its id. Missing title,
// body and category take their defaults; created_at and modified_at are
// always set by the store.
func (s *Store) Insert(ctx context.Context, scope resource.Scope, v Values) (int64, error) {
	if scope.Kind != resource.KindCollection {
		return 0, fmt.Errorf("store: insert into %s: %w", scope.URI(), apperr.ErrUnknownResource)
	}
	vals, err := checkValues(v)
	if err != nil {
		return 0, err
	}

	title, ok := vals[resource.FieldTitle]
	if !ok {
		title = models.DefaultTitle
	}
	body := vals[resource.FieldBody]
	category, ok := vals[resource.FieldCategory]
	if !ok {
		category = models.CategoryGeneral
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w: %w", apperr.ErrInsertFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO notes (title, note, created, modified, category) VALUES (?, ?, ?, ?, ?)`,
		title, body, now, now, category)
	if err != nil {
		return 0, fmt.Errorf("store: insert: %w: %w", apperr.ErrInsertFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert id: %w: %w", apperr.ErrInsertFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w: %w", apperr.ErrInsertFailed, err)
	}

	s.logger.Debug("store: inserted", slog.Int64("id", id))
	return id, nil
}

// Update applies v to every row of scope matching filter and returns the
// affected ids. modified_at is always set to the current time.
func (s *Store) Update(ctx context.Context, scope resource.Scope, v Values, filter string, args []any) (Mutation, error) {
	if !scope.Writable() {
		return Mutation{}, fmt.Errorf("store: update %s: %w", scope.URI(), apperr.ErrUnknownResource)
	}
	vals, err := checkValues(v)
	if err != nil {
		return Mutation{}, err
	}
	if _, ok := v[resource.FieldCreatedAt]; ok {
		return Mutation{}, fmt.Errorf("store: %w: %q cannot be changed", apperr.ErrInvalidValues, resource.FieldCreatedAt)
	}
	proj, err := s.router.Projection(scope)
	if err != nil {
		return Mutation{}, err
	}
	where, bound, err := scopedWhere(scope, filter, args, proj)
	if err != nil {
		return Mutation{}, err
	}

	var sets []string
	var setArgs []any
	for _, w := range writableFields {
		if val, ok := vals[w.field]; ok {
			sets = append(sets, w.column+" = ?")
			setArgs = append(setArgs, val)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sets = append(sets, resource.ColumnModified+" = ?")
	setArgs = append(setArgs, s.now().UnixMilli())

	q := "UPDATE " + tableNotes + " SET " + strings.Join(sets, ", ")
	if where != "" {
		q += " WHERE " + where
	}
	q += " RETURNING " + resource.ColumnID

	m, err := s.execReturning(ctx, q, append(setArgs, bound...))
	if err != nil {
		return Mutation{}, fmt.Errorf("store: update: %w: %w", apperr.ErrWriteFailed, err)
	}
	s.logger.Debug("store: updated", slog.String("scope", scope.URI()), slog.Int64("count", m.Count))
	return m, nil
}

// Delete removes every row of scope matching filter. Deleting a note that
// does not exist affects zero rows and is not an error.
func (s *Store) Delete(ctx context.Context, scope resource.Scope, filter string, args []any) (Mutation, error) {
	if !scope.Writable() {
		return Mutation{}, fmt.Errorf("store: delete %s: %w", scope.URI(), apperr.ErrUnknownResource)
	}
	proj, err := s.router.Projection(scope)
	if err != nil {
		return Mutation{}, err
	}
	where, bound, err := scopedWhere(scope, filter, args, proj)
	if err != nil {
		return Mutation{}, err
	}

	q := "DELETE FROM " + tableNotes
	if where != "" {
		q += " WHERE " + where
	}
	q += " RETURNING " + resource.ColumnID

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.execReturning(ctx, q, bound)
	if err != nil {
		return Mutation{}, fmt.Errorf("store: delete: %w: %w", apperr.ErrWriteFailed, err)
	}
	s.logger.Debug("store: deleted", slog.String("scope", scope.URI()), slog.Int64("count", m.Count))
	return m, nil
}

// execReturning runs a statement ending in RETURNING _id inside a
// transaction and collects the ids. Callers hold the write lock.
func (s *Store) execReturning(ctx context.Context, q string, args []any) (Mutation, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return Mutation{}, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return Mutation{}, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return Mutation{}, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Mutation{}, err
	}
	if err := rows.Close(); err != nil {
		return Mutation{}, err
	}
	if err := tx.Commit(); err != nil {
		return Mutation{}, err
	}
	return Mutation{Count: int64(len(ids)), IDs: ids}, nil
}
