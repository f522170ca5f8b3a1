package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/resource"
)

func notesProj(t *testing.T) *resource.Projection {
	t.Helper()
	p, err := resource.NewRouter().Projection(resource.Collection())
	require.NoError(t, err)
	return p
}

func TestCompileFilter(t *testing.T) {
	proj := notesProj(t)

	tests := []struct {
		name     string
		filter   string
		args     []any
		wantSQL  string
		wantArgs []any
	}{
		{"empty", "", nil, "", nil},
		{"placeholder", "title = ?", []any{"a"}, "title = ?", []any{"a"}},
		{"field renamed", "body LIKE ?", []any{"%x%"}, "note LIKE ?", []any{"%x%"}},
		{"literals lifted", "id > 3 AND category = 'Work'", nil, "_id > ? AND category = ?", []any{int64(3), "Work"}},
		{"escaped quote", "title = 'it''s'", nil, "title = ?", []any{"it's"}},
		{"negative number", "created_at >= -5", nil, "created >= ?", []any{int64(-5)}},
		{"grouping", "(title = ? OR body = ?) AND NOT category = ?", []any{1, 2, 3},
			"(title = ? OR note = ?) AND NOT category = ?", []any{1, 2, 3}},
		{"is null", "title is not null", nil, "title IS NOT NULL", nil},
		{"in", "id IN (1, ?, 3)", []any{int64(2)}, "_id IN (?, ?, ?)", []any{int64(1), int64(2), int64(3)}},
		{"lowercase keywords", "title like ? or id <> ?", []any{"a", 1}, "title LIKE ? OR _id <> ?", []any{"a", 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := compileFilter(tt.filter, tt.args, proj)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCompileFilter_Rejects(t *testing.T) {
	proj := notesProj(t)

	tests := []struct {
		name   string
		filter string
		args   []any
	}{
		{"too few args", "title = ? AND body = ?", []any{"a"}},
		{"too many args", "title = ?", []any{"a", "b"}},
		{"args without filter", "", []any{"a"}},
		{"unknown field", "password = ?", []any{"a"}},
		{"column name", "note = ?", []any{"a"}},
		{"statement separator", "title = ?; DELETE FROM notes", []any{"a"}},
		{"comment", "title = ? -- x", []any{"a"}},
		{"subquery", "id IN (SELECT _id FROM notes)", nil},
		{"dangling operator", "title =", nil},
		{"unterminated string", "title = 'abc", nil},
		{"unbalanced paren", "(title = ?", []any{"a"}},
		{"bare keyword", "AND", nil},
		{"is without null", "title IS ?", []any{"a"}},
		{"bang alone", "title ! ?", []any{"a"}},
		{"field compared to field", "title = body", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compileFilter(tt.filter, tt.args, proj)
			assert.ErrorIs(t, err, apperr.ErrInvalidFilter)
		})
	}
}

func TestCompileSort(t *testing.T) {
	proj := notesProj(t)

	got, err := compileSort("", proj)
	require.NoError(t, err)
	assert.Equal(t, "_id DESC", got)

	got, err = compileSort("modified_at desc, title", proj)
	require.NoError(t, err)
	assert.Equal(t, "modified DESC, title ASC", got)

	for _, bad := range []string{"secret", "title up", "title ASC extra", "title,,id", "title; DROP"} {
		_, err := compileSort(bad, proj)
		assert.ErrorIs(t, err, apperr.ErrInvalidFilter, bad)
	}
}
