// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes the config template and prepares the search cache
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the search cache database",
		Action: r.Setup,
	}
}

// authCommand handles the OAuth2 credential lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify in the browser (reuses a stored token unless --force)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Run the authorization flow even when a token is stored",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show whether a credential is stored and when it expires",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "token",
				Usage:  "Print a fresh access token (refreshing as configured)",
				Action: r.AuthToken,
			},
			{
				Name:   "logout",
				Usage:  "Delete the stored credential",
				Action: r.AuthLogout,
			},
		},
	}
}

// spotifyCommand handles Spotify Web API operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify user, search, and playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "me",
				Usage: "Show the authenticated user's profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyMe,
			},
			{
				Name:  "search",
				Usage: "Search Spotify for tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to return (1-50)",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text, csv, or markdown",
						Value: "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write results to a file instead of stdout",
					},
				},
				Action: r.SpotifySearch,
			},
			{
				Name:  "create",
				Usage: "Create a private playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyCreate,
			},
			{
				Name:      "add",
				Usage:     "Resolve song names and add them to a playlist",
				ArgsUsage: "<song> [song...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist ID to add tracks to",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyAdd,
			},
			{
				Name:      "build",
				Usage:     "Create a playlist from a list of song names",
				ArgsUsage: "[song...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read song names from a file, one per line (# starts a comment)",
					},
					&cli.BoolFlag{
						Name:  "skip-missing",
						Usage: "Create the playlist even when some songs have no match",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Preview and follow the build in an interactive screen",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyBuild,
			},
		},
	}
}

// cacheCommand inspects the sqlite search cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the track search cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show the number of cached searches",
				Action: r.CacheStats,
			},
			{
				Name:  "list",
				Usage: "List the most recent cached searches",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached search",
				Action: r.CacheClear,
			},
		},
	}
}

// serveCommand runs the MCP tool server on stdio
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve Spotify tools to an MCP client over stdio",
		Action: r.Serve,
	}
}
