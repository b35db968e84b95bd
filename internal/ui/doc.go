// Package ui implements the interactive playlist build screen using bubbletea's Elm architecture,
// plus the lipgloss [Palette] shared with plain CLI output.
//
// The [BuildModel] moves through three views:
//  1. [ConfirmView] : Preview the song list and confirm the build
//  2. [BuildingView] : Spinner with real-time progress updates
//  3. [ResultView] : Created playlist and unmatched songs
//
// Progress updates flow through a channel from [tasks.PlaylistBuilder]; the final result arrives
// on a separate channel once the progress channel closes.
package ui
