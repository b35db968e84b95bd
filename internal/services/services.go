// package services defines interface Service for the Spotify Web API
package services

import (
	"context"
)

// Service defines the music service operations exposed to MCP clients and the CLI.
type Service interface {
	// UserID returns the authenticated user's ID.
	UserID(ctx context.Context) (string, error)

	// SearchTrack resolves a free-text song name to a track URI.
	// Returns an error wrapping [shared.ErrNoMatch] when the search is empty.
	SearchTrack(ctx context.Context, name string) (string, error)

	// ResolveTracks resolves names in order, failing on the first name without a match.
	ResolveTracks(ctx context.Context, names []string) ([]string, error)

	// CreatePlaylist creates a private playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string) (*SpotifyPlaylist, error)

	// AddTracks appends track URIs to a playlist and returns the new snapshot ID.
	AddTracks(ctx context.Context, playlistID string, uris []string) (string, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TrackCacher remembers search resolutions between runs.
type TrackCacher interface {
	LookupTrack(query, market string) (uri string, ok bool, err error)
	CacheTrack(query, market, uri string) error
}
