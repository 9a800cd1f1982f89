package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBibPath(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		warnings int
	}{
		{"bibliography", `\bibliography{refs}`, "/doc/refs.bib", 0},
		{"bibliography list", `\bibliography{main.bib, extra}`, "/doc/main.bib", 0},
		{"multiple", "\\bibliography{a}\n\\bibliography{b}", "/doc/a.bib", 1},
		{"addbibresource", `\addbibresource{lib/sources.bib}`, "/doc/lib/sources.bib", 0},
		{"default", `no bibliography here`, "/doc/references.bib", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := DetectBibPath(tt.text, "/doc/paper.tex")
			assert.Equal(t, tt.want, got)
			assert.Len(t, warnings, tt.warnings)
		})
	}
}

func TestIngestCreatesBibliography(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	require.NoError(t, os.WriteFile(input, []byte("Text.\n\\bibliography{refs}\n"), 0644))

	doc, err := Ingest(input, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "refs.bib"), doc.BibPath)
	assert.True(t, doc.BibCreated)

	data, err := os.ReadFile(doc.BibPath)
	require.NoError(t, err)
	assert.Equal(t, BibHeader, string(data))

	again, err := Ingest(input, "")
	require.NoError(t, err)
	assert.False(t, again.BibCreated)
}

func TestIngestOverride(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "paper.tex")
	require.NoError(t, os.WriteFile(input, []byte(`\bibliography{refs}`), 0644))
	override := filepath.Join(dir, "other", "mine.bib")

	doc, err := Ingest(input, override)
	require.NoError(t, err)
	assert.Equal(t, override, doc.BibPath)
	assert.FileExists(t, override)
}

func TestIngestMissingInput(t *testing.T) {
	_, err := Ingest(filepath.Join(t.TempDir(), "absent.tex"), "")
	assert.Error(t, err)

	_, err = Ingest("", "")
	assert.Error(t, err)
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.jsonl")
	content := `{"sentence_id":"S0","papers":[{"doi":"10.1000/x","title":"X","source":"s2"}]}
{"sentence_id":"S2","status":"NEED_MANUAL","rationale":"why"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	claims, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, StatusOK, claims[0].Status)
	assert.Equal(t, StatusNeedManual, claims[1].Status)
	assert.Equal(t, "10.1000/x", claims[0].Papers[0].DOI)
}

func TestLoadPlanInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"no_id.jsonl":  `{"status":"OK"}`,
		"status.jsonl": `{"sentence_id":"S1","status":"MAYBE"}`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := LoadPlan(path)
		assert.ErrorContains(t, err, "plan line 1", name)
	}
}
