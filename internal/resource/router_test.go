package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notepad/internal/apperr"
)

func TestResolve(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		uri  string
		want Scope
	}{
		{"notes", Collection()},
		{"/notes/", Collection()},
		{"notes/5", Item(5)},
		{"notes/0", Item(0)},
		{"live_folder/notes", LiveFolder()},
		{"live_folders/notes", LiveFolder()},
		{"content://" + Authority + "/notes/42", Item(42)},
		{"content://" + Authority + "/notes", Collection()},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := r.Resolve(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_InvalidIdentifier(t *testing.T) {
	r := NewRouter()
	for _, uri := range []string{"notes/abc", "notes/-1", "notes/+3", "notes/1.5", "notes/99999999999999999999"} {
		_, err := r.Resolve(uri)
		assert.ErrorIs(t, err, apperr.ErrInvalidIdentifier, uri)
	}
}

func TestResolve_UnknownResource(t *testing.T) {
	r := NewRouter()
	for _, uri := range []string{"", "/", "note", "notes/5/extra", "live_folder", "live_folder/notes/1", "content://x", "tags"} {
		_, err := r.Resolve(uri)
		assert.ErrorIs(t, err, apperr.ErrUnknownResource, uri)
	}
}

func TestScopeURIRoundTrip(t *testing.T) {
	r := NewRouter()
	for _, s := range []Scope{Collection(), Item(7), LiveFolder()} {
		got, err := r.Resolve(s.URI())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestType(t *testing.T) {
	r := NewRouter()

	typ, err := r.Type(Collection())
	require.NoError(t, err)
	assert.Equal(t, ContentType, typ)

	typ, err = r.Type(LiveFolder())
	require.NoError(t, err)
	assert.Equal(t, ContentType, typ)

	typ, err = r.Type(Item(1))
	require.NoError(t, err)
	assert.Equal(t, ContentItemType, typ)

	_, err = r.Type(Scope{})
	assert.ErrorIs(t, err, apperr.ErrUnknownResource)
}

func TestProjection(t *testing.T) {
	r := NewRouter()

	p, err := r.Projection(Item(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "body", "created_at", "modified_at", "category"}, p.Fields())

	col, ok := p.Lookup("body")
	require.True(t, ok)
	assert.Equal(t, "note", col.Source)

	lf, err := r.Projection(LiveFolder())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, lf.Fields())
	name, ok := lf.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "title AS name", name.Select)
	_, ok = lf.Lookup("body")
	assert.False(t, ok)
}

func TestWritable(t *testing.T) {
	assert.True(t, Collection().Writable())
	assert.True(t, Item(1).Writable())
	assert.False(t, LiveFolder().Writable())
}
