package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcpspotify/internal/services"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

// TrackMatchResult represents the result of resolving a single song name.
type TrackMatchResult struct {
	Query string // Song name as given
	URI   string // Matched track URI (empty if not found)
	Error error  // Error if match failed
}

// Matched reports whether the query resolved to a track.
func (m TrackMatchResult) Matched() bool {
	return m.Error == nil && m.URI != ""
}

// BuildRequest describes a playlist to create from song names.
type BuildRequest struct {
	Name        string
	Description string
	Songs       []string
	SkipMissing bool // Create the playlist even when some songs have no match
}

// BuildResult contains all data from a build operation.
type BuildResult struct {
	UserID          string
	Playlist        *services.SpotifyPlaylist // Created playlist (nil if the build stopped before creation)
	SnapshotID      string
	TrackMatches    []TrackMatchResult
	SuccessCount    int
	FailedCount     int
	TotalTracks     int
	MatchPercentage float64
}

// URIs returns the matched track URIs in request order.
func (r *BuildResult) URIs() []string {
	uris := make([]string, 0, r.SuccessCount)
	for _, m := range r.TrackMatches {
		if m.Matched() {
			uris = append(uris, m.URI)
		}
	}
	return uris
}

// Missing returns the song names without a match.
func (r *BuildResult) Missing() []string {
	var missing []string
	for _, m := range r.TrackMatches {
		if !m.Matched() {
			missing = append(missing, m.Query)
		}
	}
	return missing
}

// PlaylistBuilder creates playlists from free-text song lists.
type PlaylistBuilder struct {
	service services.Service
	logger  *log.Logger
}

// NewPlaylistBuilder creates a PlaylistBuilder backed by service.
func NewPlaylistBuilder(service services.Service, logger *log.Logger) *PlaylistBuilder {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &PlaylistBuilder{service: service, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (b *PlaylistBuilder) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Build resolves req.Songs and creates a playlist holding the matches.
//
// The returned result is non-nil whenever searching started, so callers can report
// partial matches alongside the error.
func (b *PlaylistBuilder) Build(ctx context.Context, req BuildRequest, progress chan<- ProgressUpdate) (*BuildResult, error) {
	if b.service == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	if len(req.Songs) == 0 {
		return nil, fmt.Errorf("%w: no songs given", shared.ErrMissingArgument)
	}

	b.sendProgress(progress, fetchUserUpdate())
	userID, err := b.service.UserID(ctx)
	if err != nil {
		return nil, err
	}

	total := len(req.Songs)
	result := &BuildResult{UserID: userID, TotalTracks: total, TrackMatches: make([]TrackMatchResult, 0, total)}

	b.sendProgress(progress, searchStartUpdate(total))
	for i, song := range req.Songs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		uri, err := b.service.SearchTrack(ctx, song)
		if err != nil && !errors.Is(err, shared.ErrNoMatch) {
			return result, err
		}

		match := TrackMatchResult{Query: song, URI: uri, Error: err}
		result.TrackMatches = append(result.TrackMatches, match)
		if match.Matched() {
			result.SuccessCount++
		} else {
			result.FailedCount++
			b.logger.Warn("no match", "song", song)
		}
		b.sendProgress(progress, searchTrackUpdate(i+1, total, match))
	}
	result.MatchPercentage = float64(result.SuccessCount) / float64(total) * 100

	if result.SuccessCount == 0 {
		return result, fmt.Errorf("%w: no tracks were matched, not creating an empty playlist", shared.ErrNoMatch)
	}
	if result.FailedCount > 0 && !req.SkipMissing {
		return result, fmt.Errorf("%w: %s", shared.ErrNoMatch, strings.Join(result.Missing(), ", "))
	}

	b.sendProgress(progress, createPlaylistUpdate(req.Name))
	pl, err := b.service.CreatePlaylist(ctx, userID, req.Name, req.Description)
	if err != nil {
		return result, err
	}
	result.Playlist = pl
	b.sendProgress(progress, playlistCreatedUpdate(pl))

	uris := result.URIs()
	b.sendProgress(progress, addTracksUpdate(len(uris)))
	snapshot, err := b.service.AddTracks(ctx, pl.ID, uris)
	if err != nil {
		return result, err
	}
	result.SnapshotID = snapshot

	b.logger.Info("playlist built", "id", pl.ID, "matched", result.SuccessCount, "missing", result.FailedCount)
	return result, nil
}
