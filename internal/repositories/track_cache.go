package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/mcpspotify/internal/models"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

// TrackCacheAdapter implements services.TrackCacher using SearchCacheRepository.
//
// Lookups miss with ("", false, nil); only storage failures are errors.
type TrackCacheAdapter struct {
	repo *SearchCacheRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *SearchCacheRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// LookupTrack returns the cached URI for query in market.
func (a *TrackCacheAdapter) LookupTrack(query, market string) (string, bool, error) {
	entry, err := a.repo.Get(query, market)
	if errors.Is(err, shared.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.URI(), true, nil
}

// CacheTrack records that query resolved to uri in market.
func (a *TrackCacheAdapter) CacheTrack(query, market, uri string) error {
	if err := a.repo.Put(models.NewSearchEntry(query, market, uri)); err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}
