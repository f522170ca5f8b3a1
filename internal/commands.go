package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/starford/notepad/internal/mcpserver"
	"github.com/starford/notepad/internal/resource"
	"github.com/starford/notepad/internal/storage"
)

// RunMCP serves the notes store over MCP on stdin/stdout. Logs go to the
// configured log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := newLogger(app.config, app.logOutput)
	slog.SetDefault(logger)

	p, closeFn, err := openProvider(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(p).ServeStdio()
}

// ExportRequest selects what Export writes.
type ExportRequest struct {
	// ID exports a single note; zero exports every note.
	ID int64
	// Dir receives one <id>.txt file per note. Empty writes to Out.
	Dir string
	Out io.Writer
}

// Export writes notes in their plain-text export form and returns how many
// were written.
func Export(ctx context.Context, req ExportRequest, opts ...Option) (int, error) {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return 0, err
	}
	logger := newLogger(app.config, app.logOutput)

	p, closeFn, err := openProvider(ctx, app.config, logger)
	if err != nil {
		return 0, err
	}
	defer closeFn()

	ids := []int64{req.ID}
	if req.ID == 0 {
		rs, err := p.Query(ctx, resource.NotesPath, []string{resource.FieldID}, "", nil, resource.FieldID+" ASC")
		if err != nil {
			return 0, err
		}
		ids = ids[:0]
		for _, n := range rs.Notes() {
			ids = append(ids, n.ID)
		}
	}

	if req.Dir == "" {
		if req.Out == nil {
			return 0, fmt.Errorf("export: no output")
		}
		for i, id := range ids {
			if i > 0 {
				if _, err := io.WriteString(req.Out, "\n"); err != nil {
					return i, err
				}
			}
			if err := p.Export(ctx, resource.ItemURI(id), req.Out); err != nil {
				return i, err
			}
		}
		return len(ids), nil
	}

	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("export: create dir: %w", err)
	}
	files, err := storage.NewFS(req.Dir)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		data, err := p.ExportBytes(ctx, resource.ItemURI(id))
		if err != nil {
			return i, err
		}
		if err := files.Write(strconv.FormatInt(id, 10)+".txt", data); err != nil {
			return i, err
		}
	}
	logger.Info("Export finished",
		slog.String("dir", files.Root()),
		slog.Int("count", len(ids)))
	return len(ids), nil
}
