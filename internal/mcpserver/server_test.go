package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notepad/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return New(testutil.TestProvider(t))
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "query_notes":
		result, err = srv.queryNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "export_note":
		result, err = srv.exportNote(ctx, req)
	default:
		require.FailNow(t, "unknown tool", name)
	}

	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":    "Test",
		"body":     "Hello",
		"category": "Work",
	})
	require.Equal(t, "created: notes/1", resultText(r))

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": float64(1)})
	require.False(t, r.IsError, resultText(r))
	var note map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &note))
	assert.Equal(t, "Test", note["title"])
	assert.Equal(t, "Hello", note["body"])
	assert.Equal(t, "Work", note["category"])
}

func TestCreateNote_UnknownCategory(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"title": "x", "category": "Chores"})
	assert.True(t, r.IsError)
}

func TestReadNoteMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": float64(42)})
	assert.True(t, r.IsError, "missing note")
	r = callTool(t, srv, "read_note", map[string]interface{}{})
	assert.True(t, r.IsError, "missing id")
}

func TestQueryNotes(t *testing.T) {
	srv := testServer(t)
	for _, c := range []string{"Work", "Ideas", "Work"} {
		callTool(t, srv, "create_note", map[string]interface{}{"title": "t-" + c, "category": c})
	}

	r := callTool(t, srv, "query_notes", map[string]interface{}{
		"fields": "id, category",
		"where":  "category = ?",
		"args":   []interface{}{"Work"},
		"sort":   "id ASC",
	})
	require.False(t, r.IsError, resultText(r))
	var out struct {
		Notes []map[string]any `json:"notes"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &out))
	require.Equal(t, 2, out.Total)
	assert.Equal(t, float64(1), out.Notes[0]["id"])
	assert.Equal(t, float64(3), out.Notes[1]["id"])
	assert.NotContains(t, out.Notes[0], "title", "projection leaked title")

	r = callTool(t, srv, "query_notes", map[string]interface{}{"where": "title = ?"})
	assert.True(t, r.IsError, "placeholder without argument")

	r = callTool(t, srv, "query_notes", map[string]interface{}{"uri": "live_folder/notes"})
	assert.False(t, r.IsError)
	assert.Contains(t, resultText(r), `"name"`)
}

func TestUpdateNote(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "old", "body": "keep"})

	r := callTool(t, srv, "update_note", map[string]interface{}{"id": float64(1), "title": "new"})
	require.Equal(t, "updated: notes/1", resultText(r))

	r = callTool(t, srv, "export_note", map[string]interface{}{"id": float64(1)})
	assert.Equal(t, "new\n\nkeep", resultText(r))

	r = callTool(t, srv, "update_note", map[string]interface{}{"id": float64(9), "title": "x"})
	assert.True(t, r.IsError, "missing note")
	r = callTool(t, srv, "update_note", map[string]interface{}{"id": float64(1)})
	assert.True(t, r.IsError, "empty update")
}

func TestDeleteAndExport(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "gone"})

	r := callTool(t, srv, "delete_note", map[string]interface{}{"id": float64(1)})
	assert.Equal(t, "deleted 1 note(s)", resultText(r))
	r = callTool(t, srv, "delete_note", map[string]interface{}{"id": float64(1)})
	assert.Equal(t, "deleted 0 note(s)", resultText(r))

	r = callTool(t, srv, "export_note", map[string]interface{}{"id": float64(1)})
	assert.True(t, r.IsError)
	assert.Equal(t, "not found", resultText(r))
}

func TestNoteResource(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "Res", "body": "text"})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "notepad://notes/1"
	contents, err := srv.readNoteResource(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, contents)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok, "unexpected content type %T", contents[0])
	assert.Equal(t, "Res\n\ntext", tc.Text)
	assert.Equal(t, "text/plain", tc.MIMEType)

	req.Params.URI = "notepad://notes/7"
	_, err = srv.readNoteResource(context.Background(), req)
	assert.Error(t, err, "missing note resource")

	req.Params.URI = "other://notes/1"
	_, err = srv.readNoteResource(context.Background(), req)
	assert.Error(t, err, "foreign scheme")
}

func TestQueryGuideResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readGuideResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, contents)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, tc.Text, "modified_at")
}
