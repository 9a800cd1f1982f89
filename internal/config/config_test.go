package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(nil, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultS2BaseURL, cfg.S2BaseURL)
	assert.Equal(t, DefaultCrossrefBaseURL, cfg.CrossrefBaseURL)
	assert.Equal(t, DefaultCacheDir, cfg.CacheDir)
	assert.True(t, cfg.InsertTodoComment)
	assert.Equal(t, WriteInPlace, cfg.BibWriteMode)
	assert.Equal(t, DefaultMaxFetchWorkers, cfg.MaxFetchWorkers)
	assert.Empty(t, cfg.S2APIKey)
}

func TestResolveEnvOverridesGlobal(t *testing.T) {
	no := false
	global := &GlobalConfig{
		S2APIKey:          "from-file",
		S2BaseURL:         "http://file",
		InsertTodoComment: &no,
	}
	cfg, err := Resolve(global, envMap(map[string]string{
		"SEMANTIC_SCHOLAR_API_KEY": "from-env",
		"INSERT_TODO_COMMENT":      "yes",
		"BIB_WRITE_MODE":           "output_dir_only",
		"MAX_FETCH_WORKERS":        "3",
	}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.S2APIKey)
	assert.Equal(t, "http://file", cfg.S2BaseURL)
	assert.True(t, cfg.InsertTodoComment)
	assert.Equal(t, WriteOutputOnly, cfg.BibWriteMode)
	assert.Equal(t, 3, cfg.MaxFetchWorkers)
}

func TestResolvePlaceholderKeys(t *testing.T) {
	for _, v := range []string{"replace_me", "NONE", "optional_if_needed", "  "} {
		cfg, err := Resolve(&GlobalConfig{S2APIKey: v}, envMap(map[string]string{
			"SEMANTIC_SCHOLAR_API_KEY": v,
		}))
		require.NoError(t, err)
		assert.Empty(t, cfg.S2APIKey, "placeholder %q", v)
	}
}

func TestResolveInvalid(t *testing.T) {
	_, err := Resolve(&GlobalConfig{BibWriteMode: "sideways"}, envMap(nil))
	assert.ErrorContains(t, err, "bib_write_mode")

	_, err = Resolve(nil, envMap(map[string]string{"MAX_FETCH_WORKERS": "many"}))
	assert.ErrorContains(t, err, "MAX_FETCH_WORKERS")

	_, err = Resolve(nil, envMap(map[string]string{"MAX_FETCH_WORKERS": "0"}))
	assert.ErrorContains(t, err, "max_fetch_workers")
}

func TestOutputPaths(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "/tmp/run"
	cfg.CacheDir = "/tmp/cache"
	assert.Equal(t, "/tmp/run/revised.tex", cfg.OutputPath(RevisedFile))
	assert.Equal(t, "/tmp/cache/responses.db", cfg.CacheDBPath())
}
