package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set values in the global config file
(~/.config/autocite/config.yml, or under $XDG_CONFIG_HOME).

Usage:
  autocite config                              # Show effective config
  autocite config bib-write-mode               # Get specific value
  autocite config bib-write-mode output_dir_only

Keys:
  s2-api-key           Semantic Scholar API key
  s2-base-url          Semantic Scholar API base URL
  crossref-base-url    Crossref API base URL
  cache-dir            Response cache directory
  insert-todo-comment  true/false: TODO comments for unresolved claims
  bib-write-mode       inplace or output_dir_only
  max-fetch-workers    Maximum concurrent lookups

Environment variables (SEMANTIC_SCHOLAR_API_KEY, S2_BASE_URL,
CROSSREF_BASE_URL, CACHE_DIR, INSERT_TODO_COMMENT, BIB_WRITE_MODE,
MAX_FETCH_WORKERS) override the file.`,
	Args: cobra.MaximumNArgs(2),
	Run:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) {
	if len(args) < 2 {
		cfg := mustLoadConfig()
		values := configValues(cfg)
		if len(args) == 0 {
			emit(values, func() {
				for _, k := range configKeys {
					outputHuman("%-20s %s\n", k+":", values[k])
				}
			})
			return
		}
		key := normalizeKey(args[0])
		v, ok := values[key]
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		emit(map[string]string{key: v}, func() { outputHuman("%s\n", v) })
		return
	}

	path := config.GlobalConfigPath()
	global, err := config.LoadGlobalConfigFile(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	key := normalizeKey(args[0])
	if err := setGlobalValue(global, key, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if _, err := config.Resolve(global, func(string) string { return "" }); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := global.Save(path); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	emit(UpdateResponse{Status: "updated", Key: key, Value: args[1], Path: path}, func() {
		outputHuman("Set %s = %s in %s\n", key, args[1], path)
	})
}

// configKeys lists keys in display order.
var configKeys = []string{
	"s2-api-key",
	"s2-base-url",
	"crossref-base-url",
	"cache-dir",
	"insert-todo-comment",
	"bib-write-mode",
	"max-fetch-workers",
}

// normalizeKey accepts snake_case or kebab-case keys.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "_", "-")
}

func configValues(cfg *config.Config) map[string]string {
	key := ""
	if cfg.S2APIKey != "" {
		key = "(set)"
	}
	return map[string]string{
		"s2-api-key":          key,
		"s2-base-url":         cfg.S2BaseURL,
		"crossref-base-url":   cfg.CrossrefBaseURL,
		"cache-dir":           cfg.CacheDir,
		"insert-todo-comment": strconv.FormatBool(cfg.InsertTodoComment),
		"bib-write-mode":      cfg.BibWriteMode,
		"max-fetch-workers":   strconv.Itoa(cfg.MaxFetchWorkers),
	}
}

func setGlobalValue(g *config.GlobalConfig, key, value string) error {
	switch key {
	case "s2-api-key":
		g.S2APIKey = value
	case "s2-base-url":
		g.S2BaseURL = value
	case "crossref-base-url":
		g.CrossrefBaseURL = value
	case "cache-dir":
		g.CacheDir = config.ExpandTilde(value)
	case "insert-todo-comment":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("insert-todo-comment must be true or false: %w", err)
		}
		g.InsertTodoComment = &b
	case "bib-write-mode":
		g.BibWriteMode = value
	case "max-fetch-workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max-fetch-workers must be an integer: %w", err)
		}
		if n < 1 {
			return fmt.Errorf("max-fetch-workers must be positive, got %d", n)
		}
		g.MaxFetchWorkers = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
