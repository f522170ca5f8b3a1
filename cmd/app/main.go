package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notepad/internal"
	pkgconfig "github.com/starford/notepad/pkg/config"
)

func loadConfig(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOrDefault(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}

	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	n, err := internal.Export(ctx, internal.ExportRequest{
		ID:  int64(cmd.Int("id")),
		Dir: cmd.String("out"),
		Out: os.Stdout,
	}, opts...)
	if err != nil {
		return fmt.Errorf("export error: %w", err)
	}
	if cmd.String("out") != "" {
		fmt.Fprintf(os.Stderr, "exported %d note(s) to %s\n", n, cmd.String("out"))
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "notepad",
		Usage:  "Embedded notes store addressed by resource identifiers, with change notifications",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, change stream and inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the notes store over MCP on stdio",
				Action: mcp,
			},
			{
				Name:   "export",
				Usage:  "Write notes as plain text",
				Action: export,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "id",
						Usage: "Note id to export; all notes when omitted",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Directory to write <id>.txt files into instead of stdout",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
