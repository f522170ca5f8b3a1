// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notepad tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/export"
	"github.com/starford/notepad/internal/models"
	"github.com/starford/notepad/internal/provider"
	"github.com/starford/notepad/internal/resource"
	"github.com/starford/notepad/internal/store"
)

const (
	guideURI         = "notepad://query-guide"
	noteTemplateURI  = "notepad://notes/{id}"
	noteResourcePfx  = "notepad://"
	serverName       = "Notepad"
	serverVersion    = "1.0.0"
	categoryDescribe = "One of General, Work, Personal, Ideas"
)

// Server wraps the MCP server with notepad tools.
type Server struct {
	mcp *server.MCPServer
	p   *provider.Provider
}

// New creates a new MCP server with all notepad tools registered.
func New(p *provider.Provider) *Server {
	s := &Server{p: p}

	s.mcp = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("query_notes",
		mcp.WithDescription("Query notes with an optional filter, field list and sort order. "+
			"Read the notepad://query-guide resource for the filter language."),
		mcp.WithString("uri", mcp.Description("Resource identifier: notes (default), notes/<id> or live_folder/notes")),
		mcp.WithString("fields", mcp.Description("Comma separated fields to return, e.g. id,title")),
		mcp.WithString("where", mcp.Description("Filter with ? placeholders, e.g. category = ?")),
		mcp.WithArray("args", mcp.WithStringItems(), mcp.Description("One argument per placeholder, in order")),
		mcp.WithString("sort", mcp.Description("Sort order, e.g. modified_at DESC")),
	), s.queryNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one note with all its fields."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Missing fields take their defaults."),
		mcp.WithString("title", mcp.Description("Title, defaults to Untitled")),
		mcp.WithString("body", mcp.Description("Note text")),
		mcp.WithString("category", mcp.Description(categoryDescribe)),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Change the title, body or category of a note. Omitted fields are kept."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("body", mcp.Description("New note text")),
		mcp.WithString("category", mcp.Description(categoryDescribe)),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note. Deleting a missing note is not an error."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("export_note",
		mcp.WithDescription("Export a note as plain text: title, a blank line, then the body."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.exportNote)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Query Guide",
			mcp.WithResourceDescription("Note fields, filter language and sort syntax."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
	)

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(noteTemplateURI, "Note",
			mcp.WithTemplateDescription("Plain text export of a single note."),
			mcp.WithTemplateMIMEType(export.MIMEType),
		),
		s.readNoteResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError renders a provider error for the model; client mistakes keep
// their message, store failures are summarized.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrInsertFailed), errors.Is(err, apperr.ErrWriteFailed):
		return mcp.NewToolResultError("write failed")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return int64(id), nil
}

// noteValues collects the writable fields present in the call arguments.
func noteValues(req mcp.CallToolRequest) store.Values {
	v := store.Values{}
	args := req.GetArguments()
	for _, f := range []string{resource.FieldTitle, resource.FieldBody, resource.FieldCategory} {
		if raw, ok := args[f]; ok {
			v[f] = raw
		}
	}
	return v
}

func (s *Server) queryNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri := req.GetString("uri", resource.NotesPath)
	var fields []string
	if raw := req.GetString("fields", ""); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}
	var args []any
	for _, a := range req.GetStringSlice("args", nil) {
		args = append(args, a)
	}

	rs, err := s.p.Query(ctx, uri, fields, req.GetString("where", ""), args, req.GetString("sort", ""))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"notes": rs.Records(),
		"total": rs.Len(),
	})
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.p.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v := noteValues(req)
	if c, ok := v[resource.FieldCategory].(string); ok && !models.ValidCategory(c) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", c)), nil
	}
	id, err := s.p.Insert(ctx, resource.NotesPath, v)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", resource.ItemURI(id))), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v := noteValues(req)
	if len(v) == 0 {
		return mcp.NewToolResultError("nothing to update: pass title, body or category"), nil
	}
	if c, ok := v[resource.FieldCategory].(string); ok && !models.ValidCategory(c) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", c)), nil
	}
	n, err := s.p.Update(ctx, resource.ItemURI(id), v, "", nil)
	if err != nil {
		return toolError(err), nil
	}
	if n == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", resource.ItemURI(id))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", resource.ItemURI(id))), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.p.Delete(ctx, resource.ItemURI(id), "", nil)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted %d note(s)", n)), nil
}

func (s *Server) exportNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.p.ExportBytes(ctx, resource.ItemURI(id))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readGuideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     QueryGuide,
		},
	}, nil
}

// readNoteResource serves notepad://notes/{id}.
func (s *Server) readNoteResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	ident, ok := strings.CutPrefix(uri, noteResourcePfx)
	if !ok {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}
	data, err := s.p.ExportBytes(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: export.MIMEType,
			Text:     string(data),
		},
	}, nil
}
