package main

import (
	"github.com/matsen/autocite/internal/cache"
	"github.com/matsen/autocite/internal/config"
	"github.com/matsen/autocite/internal/crossref"
	"github.com/matsen/autocite/internal/s2"
)

// openCache opens the response cache, or returns nil (no caching) when
// disabled or when the cache cannot be opened.
func openCache(cfg *config.Config) *cache.Cache {
	if cfg.NoCache {
		return nil
	}
	rc, err := cache.Open(cfg.CacheDBPath())
	if err != nil {
		logger.Sugar().Warnw("response cache unavailable", "path", cfg.CacheDBPath(), "error", err)
		return nil
	}
	return rc
}

func newCrossrefClient(cfg *config.Config, rc *cache.Cache) *crossref.Client {
	return crossref.NewClient(
		crossref.WithBaseURL(cfg.CrossrefBaseURL),
		crossref.WithCache(rc),
		crossref.WithLogger(logger.Named("crossref")),
	)
}

func newS2Client(cfg *config.Config, rc *cache.Cache) *s2.Client {
	return s2.NewClient(
		s2.WithBaseURL(cfg.S2BaseURL),
		s2.WithAPIKey(cfg.S2APIKey),
		s2.WithCache(rc),
		s2.WithLogger(logger.Named("s2")),
	)
}
