package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/autocite/internal/config"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "bib-write-mode", normalizeKey("BIB_WRITE_MODE"))
	assert.Equal(t, "cache-dir", normalizeKey(" cache-dir "))
}

func TestSetGlobalValue(t *testing.T) {
	g := &config.GlobalConfig{}
	require.NoError(t, setGlobalValue(g, "insert-todo-comment", "false"))
	require.NotNil(t, g.InsertTodoComment)
	assert.False(t, *g.InsertTodoComment)

	require.NoError(t, setGlobalValue(g, "max-fetch-workers", "3"))
	assert.Equal(t, 3, g.MaxFetchWorkers)

	assert.Error(t, setGlobalValue(g, "max-fetch-workers", "0"))
	assert.Error(t, setGlobalValue(g, "insert-todo-comment", "sometimes"))
	assert.Error(t, setGlobalValue(g, "pdf-root", "/x"))
}

func TestConfigValuesHidesKey(t *testing.T) {
	cfg := config.Default()
	cfg.S2APIKey = "secret"
	values := configValues(cfg)
	assert.Equal(t, "(set)", values["s2-api-key"])
	assert.Len(t, values, len(configKeys))
	for _, k := range configKeys {
		assert.Contains(t, values, k)
	}
}
