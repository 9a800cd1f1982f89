package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Bibliography write modes.
const (
	// WriteInPlace rewrites the source .bib as well as the output copy.
	WriteInPlace = "inplace"
	// WriteOutputOnly only writes references.bib into the output directory.
	WriteOutputOnly = "output_dir_only"
)

// Defaults.
const (
	DefaultS2BaseURL       = "https://api.semanticscholar.org/graph/v1"
	DefaultCrossrefBaseURL = "https://api.crossref.org"
	DefaultCacheDir        = ".cache"
	DefaultOutputDir       = "out"
	DefaultMaxFetchWorkers = 10
)

// Output file names inside the output directory.
const (
	RevisedFile    = "revised.tex"
	ReferencesFile = "references.bib"
	ReportJSONFile = "report.json"
	ReportMDFile   = "report.md"
	NewEntriesFile = "new_entries.jsonl"
	CacheDBFile    = "responses.db"
)

// Config is the effective configuration of one run, resolved from the global
// config file, the environment and command-line flags (in increasing
// precedence).
type Config struct {
	S2APIKey          string `json:"-"`
	S2BaseURL         string `json:"s2_base_url"`
	CrossrefBaseURL   string `json:"crossref_base_url"`
	CacheDir          string `json:"cache_dir"`
	OutputDir         string `json:"output_dir"`
	InsertTodoComment bool   `json:"insert_todo_comment"`
	BibWriteMode      string `json:"bib_write_mode"`
	MaxFetchWorkers   int    `json:"max_fetch_workers"`
	NoCache           bool   `json:"no_cache"`
}

// Default returns a Config holding the built-in defaults.
func Default() *Config {
	return &Config{
		S2BaseURL:         DefaultS2BaseURL,
		CrossrefBaseURL:   DefaultCrossrefBaseURL,
		CacheDir:          DefaultCacheDir,
		OutputDir:         DefaultOutputDir,
		InsertTodoComment: true,
		BibWriteMode:      WriteInPlace,
		MaxFetchWorkers:   DefaultMaxFetchWorkers,
	}
}

// Resolve layers the global config and environment over the defaults.
// getenv is usually os.Getenv.
func Resolve(global *GlobalConfig, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if global != nil {
		cfg.S2APIKey = normalizeSecret(global.S2APIKey)
		setIf(&cfg.S2BaseURL, global.S2BaseURL)
		setIf(&cfg.CrossrefBaseURL, global.CrossrefBaseURL)
		setIf(&cfg.CacheDir, global.CacheDir)
		setIf(&cfg.BibWriteMode, global.BibWriteMode)
		if global.InsertTodoComment != nil {
			cfg.InsertTodoComment = *global.InsertTodoComment
		}
		if global.MaxFetchWorkers > 0 {
			cfg.MaxFetchWorkers = global.MaxFetchWorkers
		}
	}

	if key := normalizeSecret(getenv("SEMANTIC_SCHOLAR_API_KEY")); key != "" {
		cfg.S2APIKey = key
	}
	setIf(&cfg.S2BaseURL, getenv("S2_BASE_URL"))
	setIf(&cfg.CrossrefBaseURL, getenv("CROSSREF_BASE_URL"))
	setIf(&cfg.CacheDir, getenv("CACHE_DIR"))
	setIf(&cfg.BibWriteMode, getenv("BIB_WRITE_MODE"))
	if v := getenv("INSERT_TODO_COMMENT"); v != "" {
		cfg.InsertTodoComment = parseBool(v)
	}
	if v := getenv("MAX_FETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing MAX_FETCH_WORKERS: %w", err)
		}
		cfg.MaxFetchWorkers = n
	}

	cfg.CacheDir = ExpandTilde(cfg.CacheDir)
	return cfg, cfg.Validate()
}

// Load resolves the configuration from the global config file and the
// process environment.
func Load() (*Config, error) {
	global, err := LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	return Resolve(global, os.Getenv)
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.BibWriteMode {
	case WriteInPlace, WriteOutputOnly:
	default:
		return fmt.Errorf("invalid bib_write_mode: %s (valid: %s, %s)", c.BibWriteMode, WriteInPlace, WriteOutputOnly)
	}
	if c.MaxFetchWorkers < 1 {
		return fmt.Errorf("max_fetch_workers must be positive, got %d", c.MaxFetchWorkers)
	}
	return nil
}

// OutputPath returns the path of a named output file.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.OutputDir, name)
}

// CacheDBPath returns the path of the response cache database.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.CacheDir, CacheDBFile)
}

// placeholderSecrets are template values treated as unset.
var placeholderSecrets = map[string]bool{
	"optional_if_needed": true,
	"replace_me":         true,
	"none":               true,
	"null":               true,
}

func normalizeSecret(v string) string {
	v = strings.TrimSpace(v)
	if placeholderSecrets[strings.ToLower(v)] {
		return ""
	}
	return v
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
