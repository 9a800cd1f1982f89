package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/matsen/autocite/internal/config"
	"github.com/matsen/autocite/internal/reference"
	"github.com/matsen/autocite/internal/storage"
)

const runDoc = "Transformers changed NLP. They scale well \\cite{Smith2020Foo,Ghost2000}. Nobody has studied this.\n\\bibliography{refs}\n"

func setupRun(t *testing.T, mode string) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.tex"), []byte(runDoc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refs.bib"), []byte(existingBib), 0644))

	cfg := config.Default()
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.BibWriteMode = mode
	cfg.MaxFetchWorkers = 2

	r := New(cfg, newFakeResolver(), zaptest.NewLogger(t))
	r.newID = func() string { return "run-1" }
	return r, dir
}

func runClaims() []Claim {
	return []Claim{
		{SentenceID: "S0", Status: StatusOK, Papers: []reference.PaperRecord{{DOI: "10.1000/new1", Title: "Attention Is All You Need"}}},
		{SentenceID: "S2", Status: StatusNeedManual, ClaimType: "novelty", Rationale: "Needs support", Queries: []string{"q1"}},
	}
}

func TestRun(t *testing.T) {
	r, dir := setupRun(t, config.WriteInPlace)

	res, err := r.Run(context.Background(), Options{
		InputPath: filepath.Join(dir, "paper.tex"),
		Claims:    runClaims(),
	})
	require.NoError(t, err)

	revised, err := os.ReadFile(res.RevisedPath)
	require.NoError(t, err)
	assert.Equal(t, "Transformers changed NLP \\cite{Vaswani_2017}. They scale well \\cite{Smith2020Foo,Ghost2000}. "+
		"Nobody has studied this. % TODO citation needed: novelty; Needs support; suggested queries: q1\n"+
		"\\bibliography{refs}\n", string(revised))

	refs, err := os.ReadFile(res.ReferencesPath)
	require.NoError(t, err)
	assert.Contains(t, string(refs), "@article{Smith2020Foo,")
	assert.Contains(t, string(refs), "@article{Vaswani_2017,")

	inplace, err := os.ReadFile(filepath.Join(dir, "refs.bib"))
	require.NoError(t, err)
	assert.Equal(t, string(refs), string(inplace))
	assert.True(t, res.BibUpdated)

	entries, err := storage.ReadAll[NewEntry](res.NewEntriesPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Vaswani_2017", entries[0].Key)
	assert.Equal(t, KindDOI, entries[0].Kind)

	rep := res.Report
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, 4, rep.SentenceCount)
	assert.Equal(t, 1, rep.ExistingCitationsCount)
	assert.Equal(t, 2, rep.ExistingEntriesCount)
	assert.Equal(t, []string{"Vaswani_2017"}, rep.NewBibKeysAdded)
	assert.Contains(t, rep.Warnings, "Cite keys missing in bib: Ghost2000")
	require.Len(t, rep.Claims, 2)
	assert.Equal(t, "Transformers changed NLP.", rep.Claims[0].Sentence)

	assert.FileExists(t, filepath.Join(dir, "out", config.ReportJSONFile))
	md, err := os.ReadFile(filepath.Join(dir, "out", config.ReportMDFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Citation Report")
	assert.Contains(t, string(md), "new_bibkeys_added: Vaswani_2017")
}

func TestRunOutputDirOnly(t *testing.T) {
	r, dir := setupRun(t, config.WriteOutputOnly)

	res, err := r.Run(context.Background(), Options{
		InputPath: filepath.Join(dir, "paper.tex"),
		Claims:    runClaims(),
	})
	require.NoError(t, err)
	assert.False(t, res.BibUpdated)

	original, err := os.ReadFile(filepath.Join(dir, "refs.bib"))
	require.NoError(t, err)
	assert.Equal(t, existingBib, string(original))
}

func TestRunFromPlanFile(t *testing.T) {
	r, dir := setupRun(t, config.WriteOutputOnly)
	plan := filepath.Join(dir, "plan.jsonl")
	require.NoError(t, storage.WriteAll(plan, runClaims()))

	res, err := r.Run(context.Background(), Options{
		InputPath: filepath.Join(dir, "paper.tex"),
		PlanPath:  plan,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.NewEntriesAddedCount)
	assert.Equal(t, 1, res.Report.TodoComments)
}

func TestRunNoClaimsCopiesInput(t *testing.T) {
	r, dir := setupRun(t, config.WriteOutputOnly)

	res, err := r.Run(context.Background(), Options{InputPath: filepath.Join(dir, "paper.tex")})
	require.NoError(t, err)

	revised, err := os.ReadFile(res.RevisedPath)
	require.NoError(t, err)
	assert.Equal(t, runDoc, string(revised))
	assert.Empty(t, res.Report.NewBibKeysAdded)
}

func TestRunCitesWorkHeldByURL(t *testing.T) {
	r, dir := setupRun(t, config.WriteOutputOnly)

	res, err := r.Run(context.Background(), Options{
		InputPath: filepath.Join(dir, "paper.tex"),
		Claims: []Claim{{SentenceID: "S0", Status: StatusOK, Papers: []reference.PaperRecord{
			{DOI: "10.1000/new1", URL: "https://example.org/resource", Title: "Attention Is All You Need"},
		}}},
	})
	require.NoError(t, err)

	revised, err := os.ReadFile(res.RevisedPath)
	require.NoError(t, err)
	assert.Contains(t, string(revised), "Transformers changed NLP \\cite{Web2021Site}.")

	rep := res.Report
	assert.Equal(t, 1, rep.CitedSentences)
	assert.Empty(t, rep.NewBibKeysAdded)
	assert.Empty(t, rep.Skipped)
	require.Len(t, rep.Claims, 1)
	assert.Equal(t, StatusOK, rep.Claims[0].Status)
	assert.Equal(t, []string{"Web2021Site"}, rep.Claims[0].Keys)
}
