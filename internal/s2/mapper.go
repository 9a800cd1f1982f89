package s2

import (
	"strings"

	"github.com/matsen/autocite/internal/reference"
)

// SourceName tags records produced by this package.
const SourceName = "s2"

// ToRecord converts a Paper to a PaperRecord.
func ToRecord(p Paper) reference.PaperRecord {
	return reference.PaperRecord{
		PaperID:       p.PaperID,
		DOI:           strings.TrimSpace(p.ExternalIDs.DOI),
		URL:           p.URL,
		Title:         strings.TrimSpace(p.Title),
		Authors:       mapAuthors(p.Authors),
		Year:          p.Year,
		Venue:         p.Venue,
		Abstract:      p.Abstract,
		CitationCount: p.Citations,
		Source:        SourceName,
	}
}

// ToRecords converts a slice of papers, dropping entries without a title.
func ToRecords(papers []Paper) []reference.PaperRecord {
	out := make([]reference.PaperRecord, 0, len(papers))
	for _, p := range papers {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		out = append(out, ToRecord(p))
	}
	return out
}

func mapAuthors(authors []Author) []reference.Author {
	out := make([]reference.Author, 0, len(authors))
	for _, a := range authors {
		if strings.TrimSpace(a.Name) == "" {
			continue
		}
		out = append(out, reference.ParseAuthor(a.Name))
	}
	return out
}
