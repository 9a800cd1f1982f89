package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/reference"
)

const existingBib = `@article{Smith2020Foo,
  title = {Foo},
  doi = {10.1000/FOO.1},
  year = {2020}
}

@misc{Web2021Site,
  title = {Site},
  url = {https://Example.org/Resource}
}
`

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		dois: map[string]string{
			"Scaling Laws": "10.1000/scale",
		},
		bibs: map[string]string{
			"10.1000/new1":  "@article{Vaswani_2017, title={Attention Is All You Need}, author={Vaswani, Ashish}, doi={10.1000/new1}, year={2017}}",
			"10.1000/scale": "@article{Vaswani_2017, title={Scaling Laws}, doi={10.1000/scale}, year={2017}}",
		},
		failBib: map[string]bool{"10.1000/broken": true},
	}
}

func newTestSynthesizer(t *testing.T, r Resolver) *Synthesizer {
	s := NewSynthesizer(r, 4, zaptest.NewLogger(t))
	s.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestSynthesize(t *testing.T) {
	res := newFakeResolver()
	idx := bibtex.ParseIndex(existingBib)
	claims := []Claim{
		{SentenceID: "S0", Status: StatusOK, Papers: []reference.PaperRecord{
			{DOI: "10.1000/new1", Title: "Attention Is All You Need"},
			{DOI: "https://doi.org/10.1000/foo.1", Title: "Foo"},
		}},
		{SentenceID: "S1", Status: StatusOK, Papers: []reference.PaperRecord{
			{Title: "Scaling Laws", Year: 2017},
			{DOI: "10.1000/NEW1", Title: "Attention again"},
		}},
		{SentenceID: "S2", Status: StatusOK, Papers: []reference.PaperRecord{
			{Title: "A Blog Post", URL: "https://blog.example.com/post", Authors: []reference.Author{{First: "Jo", Last: "Doe"}}},
			{Title: "Site", URL: "https://example.org/resource"},
		}},
		{SentenceID: "S3", Status: StatusOK, Papers: []reference.PaperRecord{
			{Title: "Unfindable"},
			{DOI: "10.1000/broken", Title: "Broken"},
		}},
		{SentenceID: "S4", Status: StatusNeedManual, Rationale: "planner gave up"},
	}

	out, err := newTestSynthesizer(t, res).Synthesize(context.Background(), claims, idx)
	require.NoError(t, err)
	require.Len(t, out.Claims, 5)

	assert.Equal(t, []string{"Vaswani_2017", "Smith2020Foo"}, out.Claims[0].Keys)
	// DOI-bearing papers sort ahead of title-only ones.
	assert.Equal(t, []string{"Vaswani_2017", "Vaswani_2017a"}, out.Claims[1].Keys)
	assert.Equal(t, "10.1000/scale", out.Claims[1].Papers[1].DOI)
	assert.Equal(t, []string{"DoeA", "Web2021Site"}, out.Claims[2].Keys)
	assert.Equal(t, StatusNeedManual, out.Claims[3].Status)
	assert.NotEmpty(t, out.Claims[3].Notes)
	assert.Empty(t, out.Claims[3].Keys)
	assert.Equal(t, StatusNeedManual, out.Claims[4].Status)

	require.Len(t, out.Entries, 3)
	assert.Equal(t, "Vaswani_2017", out.Entries[0].Key)
	assert.Equal(t, "Vaswani_2017a", out.Entries[1].Key)
	assert.True(t, strings.HasPrefix(out.Entries[1].Raw, "@article{Vaswani_2017a,"))
	assert.Equal(t, "2017", out.Entries[1].Year)

	misc := out.Entries[2]
	assert.Equal(t, "DoeA", misc.Key)
	assert.Contains(t, misc.Raw, "@misc{DoeA,")
	assert.Contains(t, misc.Raw, "note = {Accessed: 2026-03-01}")
	assert.Equal(t, KindURL, out.New[2].Kind)
	assert.Equal(t, "S2", out.New[2].Claim)

	// Input claims are left untouched.
	assert.Nil(t, claims[0].Keys)
	assert.Equal(t, StatusOK, claims[3].Status)
}

func TestSynthesizeSkipsFetchForKnownDOI(t *testing.T) {
	res := newFakeResolver()
	idx := bibtex.ParseIndex(existingBib)
	claims := []Claim{
		{SentenceID: "S0", Status: StatusOK, Papers: []reference.PaperRecord{{DOI: "10.1000/FOO.1", Title: "Foo"}}},
		{SentenceID: "S1", Status: StatusOK, Papers: []reference.PaperRecord{{DOI: "10.1000/new1", Title: "A"}}},
		{SentenceID: "S2", Status: StatusOK, Papers: []reference.PaperRecord{{DOI: "10.1000/new1", Title: "A"}}},
	}

	out, err := newTestSynthesizer(t, res).Synthesize(context.Background(), claims, idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1000/new1"}, res.bibCalls)
	assert.Equal(t, out.Claims[1].Keys, out.Claims[2].Keys)
	assert.Len(t, out.Entries, 1)
}

func TestSynthesizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claims := []Claim{{SentenceID: "S0", Status: StatusOK, Papers: []reference.PaperRecord{{DOI: "10.1000/broken", Title: "B"}}}}
	_, err := newTestSynthesizer(t, newFakeResolver()).Synthesize(ctx, claims, bibtex.NewIndex())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesizeReusesKeyForKnownURL(t *testing.T) {
	res := newFakeResolver()
	idx := bibtex.ParseIndex(existingBib)
	claims := []Claim{
		{SentenceID: "S0", Status: StatusOK, Papers: []reference.PaperRecord{
			{DOI: "10.1000/new1", URL: "https://example.org/resource", Title: "Attention Is All You Need"},
		}},
	}

	out, err := newTestSynthesizer(t, res).Synthesize(context.Background(), claims, idx)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, out.Claims[0].Status)
	assert.Equal(t, []string{"Web2021Site"}, out.Claims[0].Keys)
	assert.Empty(t, out.Entries)
	assert.Empty(t, res.bibCalls)
}

func TestSynthesizeRendersRecordWithoutBibTeX(t *testing.T) {
	res := newFakeResolver()
	res.records = map[string]*reference.PaperRecord{
		"10.1000/nobib": {
			DOI:     "10.1000/nobib",
			Title:   "Protein Folding at Scale",
			Year:    2021,
			Venue:   "Nature",
			Authors: []reference.Author{{First: "Ann", Last: "Lee"}},
		},
	}
	claims := []Claim{
		{SentenceID: "S0", Status: StatusOK, Papers: []reference.PaperRecord{{DOI: "10.1000/nobib"}}},
		{SentenceID: "S1", Status: StatusOK, Papers: []reference.PaperRecord{{DOI: "10.1000/unknown", Title: "Ghost"}}},
	}

	out, err := newTestSynthesizer(t, res).Synthesize(context.Background(), claims, bibtex.NewIndex())
	require.NoError(t, err)

	assert.Equal(t, []string{"Lee2021Protein"}, out.Claims[0].Keys)
	require.Len(t, out.Entries, 1)
	raw := out.Entries[0].Raw
	assert.True(t, strings.HasPrefix(raw, "@article{Lee2021Protein,"))
	assert.Contains(t, raw, "journal = {Nature}")
	assert.Contains(t, raw, "doi = {10.1000/nobib}")
	assert.Equal(t, KindDOI, out.New[0].Kind)

	// Crossref knows neither a record nor metadata for this DOI.
	assert.Equal(t, StatusNeedManual, out.Claims[1].Status)
}
