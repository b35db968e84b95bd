// package formatter renders Spotify search results and playlist build reports as CSV, Markdown, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/mcpspotify/internal/services"
	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/desertthunder/mcpspotify/internal/tasks"
)

// Format names an output format accepted by the CLI.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a user-supplied name to a [Format]. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv, or markdown)", shared.ErrInvalidArgument, s)
	}
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// ExportToCSV converts tracks to CSV with columns: URI, Title, Artist, Album, Duration
func ExportToCSV(tracks []services.SpotifyTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"URI", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.URI,
			track.Name,
			track.ArtistNames(),
			track.Album.Name,
			FormatDuration(track.DurationMS),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts tracks to a Markdown list under a heading
func ExportToMarkdown(title string, tracks []services.SpotifyTrack) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, track := range tracks {
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s] `%s`\n",
			i+1, track.ArtistNames(), track.Name, albumPart, FormatDuration(track.DurationMS), track.URI)
	}

	return buf.Bytes(), nil
}

// ExportToText converts tracks to plain text
func ExportToText(tracks []services.SpotifyTrack) ([]byte, error) {
	var buf bytes.Buffer
	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s  %s\n", i+1, track.ArtistNames(), track.Name, track.URI)
	}
	return buf.Bytes(), nil
}

// Export renders tracks in the given format. title is used as the Markdown heading.
func Export(format Format, title string, tracks []services.SpotifyTrack) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(tracks)
	case FormatMarkdown:
		return ExportToMarkdown(title, tracks)
	case FormatText, "":
		return ExportToText(tracks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportBuildReport summarizes a playlist build as plain text: the playlist, then each
// song with its match status.
func ExportBuildReport(result *tasks.BuildResult) []byte {
	var buf bytes.Buffer

	if result.Playlist != nil {
		fmt.Fprintf(&buf, "Playlist: %s (ID: %s)\n", result.Playlist.Name, result.Playlist.ID)
		if url := result.Playlist.ExternalURLs.Spotify; url != "" {
			fmt.Fprintf(&buf, "URL: %s\n", url)
		}
	}
	fmt.Fprintf(&buf, "Matched: %d/%d (%.0f%%)\n\n", result.SuccessCount, result.TotalTracks, result.MatchPercentage)

	for i, m := range result.TrackMatches {
		if m.Matched() {
			fmt.Fprintf(&buf, "%d. ✓ %s  %s\n", i+1, m.Query, m.URI)
		} else {
			fmt.Fprintf(&buf, "%d. ✗ %s\n", i+1, m.Query)
		}
	}
	return buf.Bytes()
}

// WriteExport renders tracks and writes them to path, creating parent directories.
//
// Returns the path written.
func WriteExport(format Format, title string, tracks []services.SpotifyTrack, path string) (string, error) {
	data, err := Export(format, title, tracks)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}
