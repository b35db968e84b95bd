package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/mcpspotify/internal/formatter"
	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/desertthunder/mcpspotify/internal/tasks"
	"github.com/desertthunder/mcpspotify/internal/ui"
	"github.com/urfave/cli/v3"
)

// SpotifyMe prints the authenticated user's profile.
func (r *Runner) SpotifyMe(ctx context.Context, cmd *cli.Command) error {
	svc, cleanup, err := r.connect(ctx, r.errOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := svc.UserProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlainHeader("Spotify User")
	r.writePlain("ID: %s\n", user.ID)
	if user.DisplayName != "" {
		r.writePlain("Name: %s\n", user.DisplayName)
	}
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}
	r.writePlain("Followers: %d\n", user.Followers.Total)
	return nil
}

// SpotifySearch lists tracks matching the query in the configured market.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	svc, cleanup, err := r.connect(ctx, r.errOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	tracks, err := svc.SearchTracks(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to search tracks: %w", err)
	}
	r.logger.Debug("search complete", "query", query, "results", len(tracks))

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	title := fmt.Sprintf("Results for %q", query)
	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(format, title, tracks, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d tracks to %s\n", len(tracks), written)
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}

	data, err := formatter.Export(format, title, tracks)
	if err != nil {
		return err
	}
	if format == formatter.FormatText {
		r.writePlainHeader(title)
	}
	_, err = r.output.Write(data)
	return err
}

// SpotifyCreate creates a private playlist for the authenticated user.
func (r *Runner) SpotifyCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	svc, cleanup, err := r.connect(ctx, r.errOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	userID, err := svc.UserID(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	pl, err := svc.CreatePlaylist(ctx, userID, name, cmd.String("description"))
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(pl, true)
	}

	r.writePlain("✓ Playlist created: %s\n", pl.Name)
	r.writePlain("ID: %s\n", pl.ID)
	if pl.ExternalURLs.Spotify != "" {
		r.writePlain("URL: %s\n", pl.ExternalURLs.Spotify)
	}
	return nil
}

// SpotifyAdd resolves each song name to its first match and appends the tracks in order.
// Nothing is added when any name has no match.
func (r *Runner) SpotifyAdd(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")
	songs := cmd.Args().Slice()
	if len(songs) == 0 {
		return fmt.Errorf("%w: at least one song name", shared.ErrMissingArgument)
	}

	svc, cleanup, err := r.connect(ctx, r.errOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	uris, err := svc.ResolveTracks(ctx, songs)
	if err != nil {
		return err
	}

	snapshot, err := svc.AddTracks(ctx, playlistID, uris)
	if err != nil {
		return fmt.Errorf("failed to add tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"snapshot_id": snapshot, "uris": uris}, true)
	}

	r.writePlain("✓ Added %d tracks to %s\n", len(uris), playlistID)
	for i, uri := range uris {
		r.writePlain("  %d. %s  %s\n", i+1, songs[i], uri)
	}
	r.writePlain("Snapshot: %s\n", snapshot)
	return nil
}

// SpotifyBuild creates a playlist from song names given as arguments and/or read from --file.
func (r *Runner) SpotifyBuild(ctx context.Context, cmd *cli.Command) error {
	songs := cmd.Args().Slice()
	if path := cmd.String("file"); path != "" {
		fromFile, err := readSongList(path)
		if err != nil {
			return err
		}
		songs = append(songs, fromFile...)
	}

	req := tasks.BuildRequest{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Songs:       songs,
		SkipMissing: cmd.Bool("skip-missing"),
	}
	if len(req.Songs) == 0 {
		return fmt.Errorf("%w: give song names as arguments or with --file", shared.ErrMissingArgument)
	}

	svc, cleanup, err := r.connect(ctx, r.errOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	builder := tasks.NewPlaylistBuilder(svc, r.logger)

	if cmd.Bool("tui") {
		result, err := ui.RunBuild(ctx, builder, req)
		if err != nil {
			return err
		}
		if result == nil {
			return r.writePlain("Build cancelled\n")
		}
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			fmt.Fprintln(r.errOutput, update.Message)
		}
	}()

	result, err := builder.Build(ctx, req, progress)
	close(progress)
	<-done

	if result != nil && !cmd.Bool("json") {
		r.writePlainHeader("Playlist Build")
		r.output.Write(formatter.ExportBuildReport(result))
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"playlist_id": result.Playlist.ID,
			"snapshot_id": result.SnapshotID,
			"uris":        result.URIs(),
			"missing":     result.Missing(),
		}, true)
	}
	return nil
}

// readSongList reads one song name per line, skipping blank lines and # comments.
func readSongList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open song list: %w", err)
	}
	defer f.Close()

	var songs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		songs = append(songs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read song list: %w", err)
	}
	return songs, nil
}
