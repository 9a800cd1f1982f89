package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/autocite/config.yml", GlobalConfigPath())
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.S2APIKey)
	assert.Nil(t, cfg.InsertTodoComment)
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	dir := filepath.Join(tmp, GlobalConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := `s2_api_key: abc123
crossref_base_url: http://localhost:9000
insert_todo_comment: false
bib_write_mode: output_dir_only
max_fetch_workers: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(content), 0644))

	cfg, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.S2APIKey)
	assert.Equal(t, "http://localhost:9000", cfg.CrossrefBaseURL)
	require.NotNil(t, cfg.InsertTodoComment)
	assert.False(t, *cfg.InsertTodoComment)
	assert.Equal(t, WriteOutputOnly, cfg.BibWriteMode)
	assert.Equal(t, 4, cfg.MaxFetchWorkers)
}

func TestLoadGlobalConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("s2_api_key: [unclosed"), 0644))

	_, err := LoadGlobalConfigFile(path)
	assert.Error(t, err)
}

func TestGlobalConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := &GlobalConfig{S2APIKey: "k", MaxFetchWorkers: 2}
	require.NoError(t, cfg.Save(path))

	got, err := LoadGlobalConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "cache"), ExpandTilde("~/cache"))
	assert.Equal(t, "/abs/path", ExpandTilde("/abs/path"))
	assert.Equal(t, "", ExpandTilde(""))
}
