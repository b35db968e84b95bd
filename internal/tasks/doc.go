// Package tasks orchestrates multi-step playlist operations with real-time progress reporting.
//
// # Building Playlists
//
// [PlaylistBuilder.Build] turns a list of free-text song names into a new playlist:
//
//  1. Resolves the current user ID
//  2. Searches each song name, recording matches and misses
//  3. Creates the playlist (only when at least one song matched)
//  4. Adds the matched track URIs in order
//
// Misses fail the build unless [BuildRequest.SkipMissing] is set. Any other search
// error (authorization, transport) aborts immediately.
//
// # Progress Reporting
//
// Operations accept a send-only [ProgressUpdate] channel. Updates use select with
// default so a slow or absent reader never blocks the build. A nil channel disables
// reporting.
package tasks
