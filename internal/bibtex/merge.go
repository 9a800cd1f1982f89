package bibtex

import (
	"fmt"
	"strings"
)

// BibliographyEntry is a record to be merged into a corpus.
type BibliographyEntry struct {
	Key     string `json:"key"`
	DOI     string `json:"doi,omitempty"`
	URL     string `json:"url,omitempty"`
	Raw     string `json:"raw"` // serialized record, spliced verbatim
	Title   string `json:"title,omitempty"`
	Year    string `json:"year,omitempty"`
	Authors string `json:"authors,omitempty"`
}

// SkipReason explains why an entry was not merged.
type SkipReason string

const (
	SkipExistingDOI SkipReason = "doi_exists"
	SkipExistingURL SkipReason = "url_exists"
	SkipEmptyRecord SkipReason = "empty_record"
	SkipMissingKey  SkipReason = "missing_key"
)

// Skipped records an entry left out of a merge and the key that already
// holds the work, if any.
type Skipped struct {
	Entry       BibliographyEntry `json:"entry"`
	Reason      SkipReason        `json:"reason"`
	ExistingKey string            `json:"existing_key,omitempty"`
}

// MergeResult is the outcome of Merge.
type MergeResult struct {
	Text    string              `json:"-"`
	Added   []BibliographyEntry `json:"added"`
	Skipped []Skipped           `json:"skipped,omitempty"`
}

// Merge appends new entries to an existing corpus.
//
// Entries are considered in order. An entry is skipped when its DOI, or
// failing that its URL, is already held by the corpus or by an entry accepted
// earlier in the same batch; identity is DOI first, URL second, never the
// key. The key written is the one inside the raw record (entry.Key only when
// the record has none); a taken key gets a letter suffix, and the raw record
// and the returned entry always carry the final key.
//
// The output is the trimmed existing text, a blank line, and every accepted
// record trimmed and separated by a blank line, ending with a single newline.
// Existing text is kept verbatim, including records the parser cannot read.
func Merge(existing string, entries []BibliographyEntry) (*MergeResult, error) {
	idx := ParseIndex(existing)
	keys := idx.Registry()
	result := &MergeResult{}

	var b strings.Builder
	if strings.TrimSpace(existing) != "" {
		b.WriteString(strings.TrimSpace(existing))
		b.WriteString("\n\n")
	}

	for _, entry := range entries {
		if key, ok := idx.KeyForDOI(entry.DOI); ok {
			result.Skipped = append(result.Skipped, Skipped{Entry: entry, Reason: SkipExistingDOI, ExistingKey: key})
			continue
		}
		if key, ok := idx.KeyForURL(entry.URL); ok {
			result.Skipped = append(result.Skipped, Skipped{Entry: entry, Reason: SkipExistingURL, ExistingKey: key})
			continue
		}
		if strings.TrimSpace(entry.Raw) == "" {
			result.Skipped = append(result.Skipped, Skipped{Entry: entry, Reason: SkipEmptyRecord})
			continue
		}

		base := entry.Key
		if rawKey, ok := RecordKey(entry.Raw); ok {
			base = rawKey
		}
		if base == "" {
			result.Skipped = append(result.Skipped, Skipped{Entry: entry, Reason: SkipMissingKey})
			continue
		}
		key, err := keys.Allocate(base)
		if err != nil {
			return nil, fmt.Errorf("re-keying %s: %w", base, err)
		}
		entry.Raw = Rekey(entry.Raw, key)
		entry.Key = key

		b.WriteString(strings.TrimSpace(entry.Raw))
		b.WriteString("\n\n")

		if doi := NormalizeDOI(entry.DOI); doi != "" {
			idx.DOIs[doi] = entry.Key
		}
		if url := NormalizeURL(entry.URL); url != "" {
			idx.URLs[url] = entry.Key
		}
		result.Added = append(result.Added, entry)
	}

	result.Text = strings.TrimSpace(b.String()) + "\n"
	return result, nil
}

// Rekey replaces the citation key of the first record in raw.
func Rekey(raw, key string) string {
	m := entryStartRegex.FindStringSubmatchIndex(raw)
	if m == nil {
		return raw
	}
	return raw[:m[4]] + key + raw[m[5]:]
}

// RecordKey returns the citation key of the first record in raw.
func RecordKey(raw string) (string, bool) {
	m := entryStartRegex.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[2]), true
}
