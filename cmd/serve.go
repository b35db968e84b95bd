package main

import (
	"context"

	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/desertthunder/mcpspotify/internal/tools"
	"github.com/urfave/cli/v3"
)

// Serve authenticates (prompting on stderr when needed) and then speaks MCP on stdin/stdout.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	svc, cleanup, err := r.connect(ctx, r.errOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	server := tools.NewServer(svc, tools.ServerOpts{Version: version, Logger: shared.WithLogger(r.logger, "component", "mcp")})
	return server.Serve(ctx, r.input, r.output)
}
