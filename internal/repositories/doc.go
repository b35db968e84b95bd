// Package repositories implements SQLite persistence for the model types.
//
// Key Implementations:
//   - [SearchCacheRepository] : resolved track searches keyed by normalised query and market
//   - [TrackCacheAdapter] : adapts the search cache to the lookup interface used by the Spotify service
//
// The schema is created by the embedded migrations in the shared package.
package repositories
