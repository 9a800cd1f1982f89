package s2

import (
	"regexp"
	"strings"
)

// PaperIdentifier is a paper reference in the form the API accepts in paths.
type PaperIdentifier struct {
	Type  string // DOI, ARXIV, CorpusId, URL, S2
	Value string
}

// String returns the S2 API path form of the identifier.
func (p PaperIdentifier) String() string {
	if p.Type == "S2" {
		return p.Value
	}
	return p.Type + ":" + p.Value
}

var identifierPrefixes = []string{"DOI:", "ARXIV:", "CorpusId:", "URL:"}

// s2IDPattern matches a 40-character hex string (raw S2 paper ID).
var s2IDPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// doiPattern matches a bare DOI.
var doiPattern = regexp.MustCompile(`^10\.\d{4,}/\S+$`)

// ParsePaperID parses an identifier such as "DOI:10.1038/x", a bare DOI,
// a doi.org URL or a raw 40-character S2 paper ID.
func ParsePaperID(id string) PaperIdentifier {
	id = strings.TrimSpace(id)

	for _, prefix := range identifierPrefixes {
		if strings.HasPrefix(strings.ToUpper(id), strings.ToUpper(prefix)) {
			return PaperIdentifier{
				Type:  strings.TrimSuffix(prefix, ":"),
				Value: id[len(prefix):],
			}
		}
	}

	if s2IDPattern.MatchString(id) {
		return PaperIdentifier{Type: "S2", Value: id}
	}

	if doi := NormalizeDOI(id); doiPattern.MatchString(doi) {
		return PaperIdentifier{Type: "DOI", Value: doi}
	}

	return PaperIdentifier{Type: "S2", Value: id}
}

// NormalizeDOI removes common URL prefixes (https://doi.org/, DOI:) and
// lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	return strings.ToLower(doi)
}
