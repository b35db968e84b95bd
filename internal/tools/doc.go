// Package tools serves the Spotify service to MCP clients over stdio.
//
// Tools:
//   - get_user_id : the authenticated user's ID
//   - get_song_id(name) : URI of the top search match
//   - create_playlist(playlistname, description) : a new private playlist
//   - add_tracks_playlist(playlist_id, song_list) : resolve names and append them in order
//
// Failures are returned as tool error results so the client model can see and react to them;
// the handlers never return protocol errors.
package tools
