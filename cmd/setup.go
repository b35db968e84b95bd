package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the template when missing, then initializes the search
// cache database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		if r.lookup != nil {
			shared.ApplyEnv(config, r.lookup)
		}
		r.config = config
		r.writePlain("✓ Config file created: %s\n", configPath)
	}

	if r.config.Database.Path == "" {
		r.logger.Info("database.path is empty, search cache disabled")
	} else {
		r.logger.Info("initializing database", "path", r.config.Database.Path)
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		r.writePlain("✓ Search cache ready: %s\n", r.config.Database.Path)
	}

	if err := r.config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Create an app at https://developer.spotify.com/dashboard\n")
		r.writePlain("2. Add %s as a redirect URI\n", r.config.Credentials.Spotify.RedirectURI)
		r.writePlain("3. Set client_id and client_secret in %s (or CLIENT_ID / CLIENT_SECRET)\n", configPath)
		r.writePlain("4. Run 'mcpspotify auth login'\n")
		return nil
	}

	r.writePlainln("Run 'mcpspotify auth login' to authorize.")
	return nil
}
