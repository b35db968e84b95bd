package tools

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/desertthunder/mcpspotify/internal/services"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

const (
	ServerName    = "mcp-spotify"
	ServerVersion = "0.1.0"
)

// ServerOpts configures a [Server].
type ServerOpts struct {
	Version string
	Logger  *log.Logger
}

// Server exposes the Spotify service as MCP tools.
type Server struct {
	svc       services.Service
	mcpServer *server.MCPServer
	logger    *log.Logger
}

// NewServer creates the MCP server and registers every tool.
func NewServer(svc services.Service, opts ServerOpts) *Server {
	version := opts.Version
	if version == "" {
		version = ServerVersion
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	s := &Server{
		svc:       svc,
		mcpServer: server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		logger:    logger,
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve speaks MCP over in/out until ctx is done or in is closed.
//
// Nothing else may write to out; logs go to the logger, which must not share it.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))

	s.logger.Info("serving MCP over stdio", "name", ServerName)
	return stdio.Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	getUserID := mcp.NewTool("get_user_id",
		mcp.WithDescription("Retrieve the current Spotify user's unique user ID. "+
			"The ID is required for operations like creating a playlist."),
	)
	s.mcpServer.AddTool(getUserID, s.handleGetUserID)

	getSongID := mcp.NewTool("get_song_id",
		mcp.WithDescription("Search for a track on Spotify by its name and return the Spotify URI of the top match "+
			"(e.g. spotify:track:7v5zr1r0ft1LX2pIjHXopK). Include the artist for better accuracy."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Song name, optionally with the artist, e.g. \"Chura Ke Dil Mera Kumar Sanu\""),
		),
	)
	s.mcpServer.AddTool(getSongID, s.handleGetSongID)

	createPlaylist := mcp.NewTool("create_playlist",
		mcp.WithDescription("Create a new private playlist for the current Spotify user. "+
			"Returns playlist_id for use with add_tracks_playlist, and the shareable playlist_url."),
		mcp.WithString("playlistname",
			mcp.Required(),
			mcp.Description("Title of the playlist"),
		),
		mcp.WithString("description",
			mcp.Description("Short description of the playlist"),
		),
	)
	s.mcpServer.AddTool(createPlaylist, s.handleCreatePlaylist)

	addTracks := mcp.NewTool("add_tracks_playlist",
		mcp.WithDescription("Add one or more songs to a Spotify playlist. Songs are given by name and "+
			"resolved with a search; do not pass URIs. Returns the snapshot_id confirming the change."),
		mcp.WithString("playlist_id",
			mcp.Required(),
			mcp.Description("Spotify ID of the target playlist, as returned by create_playlist"),
		),
		mcp.WithArray("song_list",
			mcp.Required(),
			mcp.Description("Song names, e.g. [\"Chura Ke Dil Mera\", \"Hanuman Chalisa\", \"In The End\"]"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.mcpServer.AddTool(addTracks, s.handleAddTracks)
}
