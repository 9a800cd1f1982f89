package bibtex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "corpus.bib"))
	require.NoError(t, err)
	return string(data)
}

func TestParse_Fixture(t *testing.T) {
	entries := Parse(readFixture(t))

	require.Len(t, entries, 4)
	assert.Equal(t, []string{"Smith2020Foo", "Lee2019Bar", "Web2021Site", "Nested2018Brace"},
		[]string{entries[0].Key, entries[1].Key, entries[2].Key, entries[3].Key})

	smith := entries[0]
	assert.Equal(t, "article", smith.Type)
	assert.Equal(t, "Foo and its applications", smith.Field("title"))
	assert.Equal(t, "Smith, John and Doe, Jane", smith.Field("author"))
	assert.Equal(t, "2020", smith.Field("year"))
	assert.Equal(t, "10.1000/FOO.1", smith.Field("doi"), "field names are case-insensitive")
	assert.Equal(t, "Journal of Foo", smith.Field("journal"))

	lee := entries[1]
	assert.Equal(t, "inproceedings", lee.Type)
	assert.Equal(t, "Bar revisited", lee.Field("title"), "title must not match inside booktitle")
	assert.Equal(t, "Proceedings of Bar", lee.Field("booktitle"))
	assert.Equal(t, "Lee, Ann", lee.Field("author"))
	assert.Equal(t, "", lee.Field("year"), "bare numbers are not extracted")
	assert.Equal(t, "1--10", lee.Field("pages"))

	assert.Equal(t, "https://Example.org/Resource", entries[2].Field("url"))
}

func TestParse_NestedBracesTruncate(t *testing.T) {
	// Known limitation: values stop at the first closing brace
	entries := Parse(readFixture(t))
	assert.Equal(t, "{BERT", entries[3].Field("title"))
}

func TestParse_RawSpansRecord(t *testing.T) {
	text := readFixture(t)
	entries := Parse(text)

	for _, e := range entries {
		assert.Equal(t, text[e.Start:e.End], e.Raw)
		assert.Equal(t, byte('@'), e.Raw[0])
	}
	assert.Equal(t, len(text), entries[3].End)
}

func TestParse_AtSignInValueTruncates(t *testing.T) {
	// Known limitation: an @ inside a value ends the record body
	text := "@misc{Mail2020,\n  note = {contact me@host},\n  doi = {10.1/mail},\n}\n"
	entries := Parse(text)

	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Field("doi"))
}

func TestParse_Unparseable(t *testing.T) {
	assert.Empty(t, Parse("@comment{no comma here}"))
	assert.Empty(t, Parse(""))
}

func TestParseIndex(t *testing.T) {
	idx := ParseIndex(readFixture(t))

	assert.True(t, idx.HasKey("Lee2019Bar"))
	assert.False(t, idx.HasKey("Missing"))

	key, ok := idx.KeyForDOI("https://doi.org/10.1000/foo.1")
	assert.True(t, ok)
	assert.Equal(t, "Smith2020Foo", key)

	key, ok = idx.KeyForURL("https://example.org/resource")
	assert.True(t, ok)
	assert.Equal(t, "Web2021Site", key)

	_, ok = idx.KeyForDOI("")
	assert.False(t, ok)

	reg := idx.Registry()
	assert.Equal(t, 4, reg.Len())
}

func TestParseFile_Missing(t *testing.T) {
	idx, err := ParseFile(filepath.Join(t.TempDir(), "nope.bib"))
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1234/ABC", "10.1234/abc"},
		{" https://doi.org/10.1234/abc ", "10.1234/abc"},
		{"doi:10.1234/abc", "10.1234/abc"},
		{"DOI:10.1234/ABC", "10.1234/abc"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDOI(tt.in))
		})
	}
}
