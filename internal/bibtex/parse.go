// Package bibtex parses, synthesizes and merges BibTeX corpora.
//
// The parser is deliberately shallow. A record opens at "@type{key," and its
// body runs up to the next "@" anywhere in the text; braces are not balanced.
// Field values are taken from the first "name = {value}" or "name = "value""
// match, and a value stops at the first closing brace or quote. Known
// failure modes, not handled:
//   - an "@" inside a field value truncates the record there
//   - nested braces ("{{BERT}: pre-training}") yield a truncated value
//   - string macros, @string/@preamble semantics and concatenation (#)
//
// Text the parser does not understand is never dropped from a corpus: merging
// works on the raw text and only consults the index for deduplication.
package bibtex

import (
	"os"
	"regexp"
	"strings"
)

// entryStartRegex matches a record opening: @type{key,
var entryStartRegex = regexp.MustCompile(`@(\w+)\s*\{\s*([^,{}@\s]+)\s*,`)

// FieldNames are the fields extracted into Entry.Fields.
var FieldNames = []string{
	"title", "author", "year", "doi", "url", "journal", "booktitle",
	"pages", "volume", "number", "publisher",
}

var fieldRegexes = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(FieldNames))
	for _, name := range FieldNames {
		m[name] = regexp.MustCompile(`(?i)\b` + name + `\s*=\s*[{"]([^}"]+)[}"]`)
	}
	return m
}()

// Entry is one parsed record.
type Entry struct {
	Key    string            `json:"key"`
	Type   string            `json:"type"`
	Raw    string            `json:"raw"` // from "@" up to the next record
	Start  int               `json:"start"`
	End    int               `json:"end"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Field returns a recognized field value, or "".
func (e Entry) Field(name string) string {
	return e.Fields[strings.ToLower(name)]
}

// Parse returns the records of a corpus in document order. A record whose
// opening cannot be matched is not returned.
func Parse(text string) []Entry {
	var entries []Entry
	for _, m := range entryStartRegex.FindAllStringSubmatchIndex(text, -1) {
		bodyStart := m[1]
		end := len(text)
		if next := strings.IndexByte(text[bodyStart:], '@'); next >= 0 {
			end = bodyStart + next
		}
		body := text[bodyStart:end]

		fields := make(map[string]string)
		for _, name := range FieldNames {
			if fm := fieldRegexes[name].FindStringSubmatch(body); fm != nil {
				fields[name] = strings.TrimSpace(fm[1])
			}
		}

		entries = append(entries, Entry{
			Key:    strings.TrimSpace(text[m[4]:m[5]]),
			Type:   strings.ToLower(text[m[2]:m[3]]),
			Raw:    text[m[0]:end],
			Start:  m[0],
			End:    end,
			Fields: fields,
		})
	}
	return entries
}

// Index indexes the records of a corpus for deduplication.
type Index struct {
	// Entries maps citation keys to records; a repeated key keeps the last record
	Entries map[string]Entry
	// Order lists citation keys in first-seen order
	Order []string
	// DOIs maps normalized DOI values to citation keys
	DOIs map[string]string
	// URLs maps lowercased URLs to citation keys
	URLs map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		Entries: make(map[string]Entry),
		DOIs:    make(map[string]string),
		URLs:    make(map[string]string),
	}
}

// ParseIndex parses text and indexes its records.
func ParseIndex(text string) *Index {
	idx := NewIndex()
	for _, e := range Parse(text) {
		idx.Add(e)
	}
	return idx
}

// ParseFile builds an index from a .bib file.
// Returns an empty index if the file doesn't exist.
func ParseFile(path string) (*Index, error) {
	text, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseIndex(text), nil
}

// Add indexes one record.
func (idx *Index) Add(e Entry) {
	if _, exists := idx.Entries[e.Key]; !exists {
		idx.Order = append(idx.Order, e.Key)
	}
	idx.Entries[e.Key] = e
	if doi := NormalizeDOI(e.Field("doi")); doi != "" {
		idx.DOIs[doi] = e.Key
	}
	if url := NormalizeURL(e.Field("url")); url != "" {
		idx.URLs[url] = e.Key
	}
}

// HasKey reports whether a citation key is present.
func (idx *Index) HasKey(key string) bool {
	_, ok := idx.Entries[key]
	return ok
}

// KeyForDOI returns the citation key holding doi, if any.
func (idx *Index) KeyForDOI(doi string) (string, bool) {
	doi = NormalizeDOI(doi)
	if doi == "" {
		return "", false
	}
	key, ok := idx.DOIs[doi]
	return key, ok
}

// KeyForURL returns the citation key holding url, if any.
func (idx *Index) KeyForURL(url string) (string, bool) {
	url = NormalizeURL(url)
	if url == "" {
		return "", false
	}
	key, ok := idx.URLs[url]
	return key, ok
}

// Registry returns a key registry seeded with the indexed keys.
func (idx *Index) Registry() *KeyRegistry {
	return NewKeyRegistry(idx.Order...)
}

// NormalizeDOI normalizes a DOI for comparison.
// Removes common prefixes like "https://doi.org/" and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi.org/", "DOI:", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// NormalizeURL lowercases and trims a URL for comparison.
func NormalizeURL(url string) string {
	return strings.ToLower(strings.TrimSpace(url))
}

// ReadFile reads a .bib file, returning "" if it doesn't exist.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
