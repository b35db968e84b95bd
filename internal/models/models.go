// package models defines the persisted data model for mcpspotify
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// SearchEntry records which track URI a search query resolved to in a market.
type SearchEntry struct {
	id        string
	query     string
	market    string
	uri       string
	createdAt time.Time
	updatedAt time.Time
}

var _ Model = (*SearchEntry)(nil)

// NewSearchEntry creates an unsaved entry. The query is normalised with [NormalizeQuery].
func NewSearchEntry(query, market, uri string) *SearchEntry {
	now := time.Now()
	return &SearchEntry{
		query:     NormalizeQuery(query),
		market:    market,
		uri:       uri,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreSearchEntry rebuilds an entry read from storage.
func RestoreSearchEntry(id, query, market, uri string, createdAt, updatedAt time.Time) *SearchEntry {
	return &SearchEntry{
		id:        id,
		query:     query,
		market:    market,
		uri:       uri,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (e *SearchEntry) ID() string           { return e.id }
func (e *SearchEntry) Query() string        { return e.query }
func (e *SearchEntry) Market() string       { return e.market }
func (e *SearchEntry) URI() string          { return e.uri }
func (e *SearchEntry) CreatedAt() time.Time { return e.createdAt }
func (e *SearchEntry) UpdatedAt() time.Time { return e.updatedAt }

func (e *SearchEntry) SetID(id string)          { e.id = id }
func (e *SearchEntry) SetUpdatedAt(t time.Time) { e.updatedAt = t }

// Validate requires a query and a Spotify track URI.
func (e *SearchEntry) Validate() error {
	if e.query == "" {
		return fmt.Errorf("query is required")
	}
	if !strings.HasPrefix(e.uri, "spotify:track:") {
		return fmt.Errorf("invalid track uri %q", e.uri)
	}
	return nil
}

// NormalizeQuery folds case and whitespace so equivalent searches share a cache entry.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
