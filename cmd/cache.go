package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mcpspotify/internal/repositories"
	"github.com/urfave/cli/v3"
)

// cachedSearch is the JSON shape of a cache entry.
type cachedSearch struct {
	Query     string    `json:"query"`
	Market    string    `json:"market"`
	URI       string    `json:"uri"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Runner) cacheRepo() (*repositories.SearchCacheRepository, func(), error) {
	db, repo, err := r.openCache()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open search cache: %w", err)
	}
	if repo == nil {
		return nil, nil, fmt.Errorf("search cache disabled: database.path is empty")
	}
	return repo, func() { db.Close() }, nil
}

// CacheStats prints the number of cached search resolutions.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, cleanup, err := r.cacheRepo()
	if err != nil {
		return err
	}
	defer cleanup()

	count, err := repo.Count()
	if err != nil {
		return err
	}

	r.writePlainHeader("Search Cache")
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("Cached searches: %d\n", count)
	return nil
}

// CacheList prints the most recently updated cache entries.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	repo, cleanup, err := r.cacheRepo()
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := repo.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]cachedSearch, len(entries))
		for i, e := range entries {
			out[i] = cachedSearch{Query: e.Query(), Market: e.Market(), URI: e.URI(), UpdatedAt: e.UpdatedAt()}
		}
		return r.writeJSON(out, true)
	}

	if len(entries) == 0 {
		return r.writePlain("Search cache is empty\n")
	}
	for i, e := range entries {
		r.writePlain("%d. %s [%s] → %s\n", i+1, e.Query(), e.Market(), e.URI())
	}
	return nil
}

// CacheClear deletes every cached search.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, cleanup, err := r.cacheRepo()
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := repo.Clear()
	if err != nil {
		return err
	}
	r.logger.Info("search cache cleared", "entries", n)
	return r.writePlain("✓ Cleared %d cached searches\n", n)
}
