package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mcpspotify/internal/models"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

const searchEntryColumns = "id, query, market, uri, created_at, updated_at"

// SearchCacheRepository persists resolved track searches in the search_cache table.
//
// Entries are unique per (query, market); writing an existing pair replaces its URI.
type SearchCacheRepository struct {
	db *sql.DB
}

// NewSearchCacheRepository creates a new SearchCacheRepository with the given database connection
func NewSearchCacheRepository(db *sql.DB) *SearchCacheRepository {
	return &SearchCacheRepository{db: db}
}

// Put inserts or updates entry and sets its ID to the stored row's ID.
func (r *SearchCacheRepository) Put(entry *models.SearchEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	query := `
		INSERT INTO search_cache (id, query, market, uri, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (query, market) DO UPDATE SET uri = excluded.uri, updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		entry.Query(),
		entry.Market(),
		entry.URI(),
		entry.CreatedAt(),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert search entry: %w", err)
	}

	var id string
	err = r.db.QueryRow("SELECT id FROM search_cache WHERE query = ? AND market = ?", entry.Query(), entry.Market()).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to read search entry id: %w", err)
	}
	entry.SetID(id)

	return nil
}

// Get retrieves the entry for query in market. A miss is [shared.ErrRecordNotFound].
func (r *SearchCacheRepository) Get(query, market string) (*models.SearchEntry, error) {
	row := r.db.QueryRow(
		"SELECT "+searchEntryColumns+" FROM search_cache WHERE query = ? AND market = ?",
		models.NormalizeQuery(query), market,
	)
	return scanSearchEntry(row)
}

// List returns entries, most recently updated first. A limit of zero or less returns all entries.
func (r *SearchCacheRepository) List(limit int) ([]*models.SearchEntry, error) {
	query := "SELECT " + searchEntryColumns + " FROM search_cache ORDER BY updated_at DESC, query ASC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search cache: %w", err)
	}
	defer rows.Close()

	var entries []*models.SearchEntry
	for rows.Next() {
		entry, err := scanSearchEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Count returns the number of cached searches.
func (r *SearchCacheRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM search_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count search cache: %w", err)
	}
	return n, nil
}

// Delete removes a single entry by ID.
func (r *SearchCacheRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM search_cache WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete search entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: search entry %s", shared.ErrRecordNotFound, id)
	}

	return nil
}

// Clear removes every entry and reports how many were removed.
func (r *SearchCacheRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM search_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear search cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
