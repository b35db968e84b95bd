package tasks

import (
	"fmt"

	"github.com/desertthunder/mcpspotify/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchUser Phase = iota
	SearchTracks
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func fetchUserUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchUser, Step: 1, Total: 1, Message: "Fetching Spotify user..."}
}

func searchStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching for %d tracks on Spotify...", total),
	}
}

func searchTrackUpdate(step, total int, match TrackMatchResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, match.Query)
	if match.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s", step, total, match.Query)
	}
	return ProgressUpdate{Phase: SearchTracks, Step: step, Total: total, Message: msg, Data: match}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func playlistCreatedUpdate(pl *services.SpotifyPlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}
