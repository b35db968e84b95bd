package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := shared.LoadDotEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Logger: logger,
		Lookup: os.LookupEnv,
	})

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mcpspotify",
		Usage:   "Spotify playlist tools for MCP clients and the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("MCPSPOTIFY_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides log.level",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}
