// Package reference defines the candidate paper types shared by search clients,
// deduplication and bibliography synthesis.
package reference

import "strings"

// PaperRecord is an unverified bibliographic description of a work returned
// by a search source, prior to deduplication.
type PaperRecord struct {
	// Identity
	PaperID string `json:"paper_id,omitempty"` // Source-specific identifier (e.g. S2 paperId)
	DOI     string `json:"doi,omitempty"`      // Digital Object Identifier (primary deduplication key)
	URL     string `json:"url,omitempty"`

	// Metadata
	Title    string   `json:"title,omitempty"`
	Authors  []Author `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"` // 0 if unknown
	Venue    string   `json:"venue,omitempty"`
	Abstract string   `json:"abstract,omitempty"`

	CitationCount int    `json:"citation_count,omitempty"`
	Source        string `json:"source"` // s2, crossref, pdf, plan
}

// HasDOI reports whether the record carries a non-blank DOI.
func (p PaperRecord) HasDOI() bool {
	return strings.TrimSpace(p.DOI) != ""
}

// QualityScore counts the signals used to pick between two records of the
// same work: a non-empty abstract, a DOI, and a positive citation count.
func (p PaperRecord) QualityScore() int {
	score := 0
	if strings.TrimSpace(p.Abstract) != "" {
		score++
	}
	if p.HasDOI() {
		score++
	}
	if p.CitationCount > 0 {
		score++
	}
	return score
}

// Better returns b only if it scores strictly higher than a, so ties keep
// the first-seen record.
func Better(a, b PaperRecord) PaperRecord {
	if b.QualityScore() > a.QualityScore() {
		return b
	}
	return a
}
