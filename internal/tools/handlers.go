package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/desertthunder/mcpspotify/internal/services"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

// PlaylistResult is the create_playlist response.
type PlaylistResult struct {
	PlaylistID  string `json:"playlist_id"`
	PlaylistURL string `json:"playlist_url"`
	Name        string `json:"name"`
	Status      string `json:"status"`
}

// AddTracksResult is the add_tracks_playlist response.
type AddTracksResult struct {
	SnapshotID string   `json:"snapshot_id"`
	URIs       []string `json:"uris"`
}

func (s *Server) handleGetUserID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.svc.UserID(ctx)
	if err != nil {
		return s.toolError("get_user_id", err), nil
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) handleGetSongID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil || strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("name argument is required"), nil
	}

	uri, err := s.svc.SearchTrack(ctx, strings.TrimSpace(name))
	if err != nil {
		return s.toolError("get_song_id", err), nil
	}
	return mcp.NewToolResultText(uri), nil
}

func (s *Server) handleCreatePlaylist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("playlistname")
	if err != nil || strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("playlistname argument is required"), nil
	}
	description := request.GetString("description", "")

	userID, err := s.svc.UserID(ctx)
	if err != nil {
		return s.toolError("create_playlist", err), nil
	}

	playlist, err := s.svc.CreatePlaylist(ctx, userID, name, description)
	if err != nil {
		return s.toolError("create_playlist", err), nil
	}

	s.logger.Info("created playlist", "id", playlist.ID, "name", playlist.Name)
	return jsonResult(PlaylistResult{
		PlaylistID:  playlist.ID,
		PlaylistURL: playlist.ExternalURLs.Spotify,
		Name:        playlist.Name,
		Status:      "201",
	})
}

func (s *Server) handleAddTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playlistID, err := request.RequireString("playlist_id")
	if err != nil || strings.TrimSpace(playlistID) == "" {
		return mcp.NewToolResultError("playlist_id argument is required"), nil
	}

	songs, err := stringList(request.GetArguments()["song_list"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("song_list: %v", err)), nil
	}

	s.logger.Info("adding songs", "playlist", playlistID, "songs", songs)
	uris, err := s.svc.ResolveTracks(ctx, songs)
	if err != nil {
		return s.toolError("add_tracks_playlist", err), nil
	}
	s.logger.Debug("resolved songs", "uris", uris)

	snapshot, err := s.svc.AddTracks(ctx, playlistID, uris)
	if err != nil {
		return s.toolError("add_tracks_playlist", err), nil
	}

	return jsonResult(AddTracksResult{SnapshotID: snapshot, URIs: uris})
}

// toolError reports err to the client as a failed tool call, adding a hint when the user must log in again.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Error("tool call failed", "tool", tool, "error", err)

	msg := err.Error()
	switch {
	case services.IsAuthError(err):
		msg += ". Run `mcpspotify auth login --force` to authorize again."
	case errors.Is(err, shared.ErrNoMatch):
		msg += ". Try including the artist name."
	}
	return mcp.NewToolResultError(msg)
}

// stringList accepts a JSON array of non-empty strings.
func stringList(v any) ([]string, error) {
	var items []any
	switch raw := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: expected a list of song names", shared.ErrMissingArgument)
	case []string:
		for _, s := range raw {
			items = append(items, s)
		}
	case []any:
		items = raw
	default:
		return nil, fmt.Errorf("%w: expected a list of song names, got %T", shared.ErrInvalidArgument, v)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: list is empty", shared.ErrMissingArgument)
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: item %d is not a song name", shared.ErrInvalidArgument, i)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
