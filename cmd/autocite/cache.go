package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/cache"
)

// cacheNamespaces are the namespaces the API clients write to.
var cacheNamespaces = []string{"s2", "crossref", "crossref-bibtex"}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show response cache statistics",
	Long: `Show how many API responses are cached, per namespace.

Examples:
  autocite cache
  autocite cache clear`,
	Args: cobra.NoArgs,
	Run:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	Args:  cobra.NoArgs,
	Run:   runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// CacheStats is the output of the cache command.
type CacheStats struct {
	Path       string         `json:"path"`
	Total      int            `json:"total"`
	Namespaces map[string]int `json:"namespaces"`
}

func openCacheOrExit() (*cache.Cache, string) {
	cfg := mustLoadConfig()
	path := cfg.CacheDBPath()
	rc, err := cache.Open(path)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return rc, path
}

func runCacheStats(cmd *cobra.Command, args []string) {
	rc, path := openCacheOrExit()
	defer rc.Close()

	stats := CacheStats{Path: path, Namespaces: make(map[string]int)}
	total, err := rc.Count("")
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	stats.Total = total
	for _, ns := range cacheNamespaces {
		n, err := rc.Count(ns)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		stats.Namespaces[ns] = n
	}

	emit(stats, func() {
		outputHuman("%s: %d responses\n", stats.Path, stats.Total)
		for _, ns := range cacheNamespaces {
			outputHuman("  %-16s %d\n", ns, stats.Namespaces[ns])
		}
	})
}

func runCacheClear(cmd *cobra.Command, args []string) {
	rc, path := openCacheOrExit()
	defer rc.Close()

	if err := rc.Clear(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	emit(UpdateResponse{Status: "cleared", Path: path}, func() {
		outputHuman("Cleared %s\n", path)
	})
}
