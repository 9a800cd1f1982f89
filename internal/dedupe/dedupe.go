// Package dedupe merges candidate paper records from multiple search sources
// into a set of distinct works.
//
// Records with a DOI are grouped by case-insensitive DOI. Records without one
// are clustered greedily by fuzzy title similarity: each record joins the
// first existing cluster it matches, or starts a new one. The fuzzy relation
// is not transitive, so the grouping depends on input order. This is a
// deliberate approximation; for a fixed input order the output is
// deterministic.
package dedupe

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/matsen/autocite/internal/reference"
)

// TitleThreshold is the minimum similarity (0-100) for two DOI-less records
// to be treated as the same work.
const TitleThreshold = 95.0

var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeTitle lowercases a title and collapses every run of
// non-alphanumeric characters into a single space.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(nonAlnumRegex.ReplaceAllString(strings.ToLower(title), " "))
}

// TitleSimilarity returns the edit-based similarity of two normalized titles
// on a 0-100 scale: 100 * (1 - distance / longer length).
func TitleSimilarity(a, b string) float64 {
	a, b = NormalizeTitle(a), NormalizeTitle(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// Candidates returns the deduplicated records: DOI-group survivors in order
// of first appearance, followed by the representatives of the title clusters
// in order of cluster creation.
func Candidates(items []reference.PaperRecord) []reference.PaperRecord {
	byDOI := make(map[string]int)
	var withDOI []reference.PaperRecord
	var noDOI []reference.PaperRecord

	for _, item := range items {
		if !item.HasDOI() {
			noDOI = append(noDOI, item)
			continue
		}
		key := strings.ToLower(strings.TrimSpace(item.DOI))
		if idx, ok := byDOI[key]; ok {
			withDOI[idx] = reference.Better(withDOI[idx], item)
			continue
		}
		byDOI[key] = len(withDOI)
		withDOI = append(withDOI, item)
	}

	return append(withDOI, clusterByTitle(noDOI)...)
}

// clusterByTitle keeps one representative per cluster and scans them
// linearly, so the first matching cluster always wins.
func clusterByTitle(items []reference.PaperRecord) []reference.PaperRecord {
	var reps []reference.PaperRecord
	for _, item := range items {
		matched := false
		for i, rep := range reps {
			if TitleSimilarity(item.Title, rep.Title) >= TitleThreshold {
				reps[i] = reference.Better(rep, item)
				matched = true
				break
			}
		}
		if !matched {
			reps = append(reps, item)
		}
	}
	return reps
}
