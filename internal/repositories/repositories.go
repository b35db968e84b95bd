// package repositories provides persistence layer implementations for the model types.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mcpspotify/internal/models"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// scanSearchEntry scans the search_cache columns in declaration order.
func scanSearchEntry(s scanner) (*models.SearchEntry, error) {
	var (
		id        string
		query     string
		market    string
		uri       string
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.Scan(&id, &query, &market, &uri, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan search entry: %w", err)
	}

	return models.RestoreSearchEntry(id, query, market, uri, createdAt, updatedAt), nil
}
