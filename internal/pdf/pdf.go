// Package pdf pulls citation metadata (DOI and a best-guess title) out of
// local PDF files.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ScanPages is how many leading pages are searched for a DOI.
const ScanPages = 3

// doiPattern matches 10.<registrant>/<suffix>, stopping at characters that
// cannot appear unescaped in running text.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// Metadata is what could be recovered from a PDF.
type Metadata struct {
	Path  string `json:"path"`
	DOI   string `json:"doi,omitempty"`
	Title string `json:"title,omitempty"`
	Pages int    `json:"pages"`
}

// Extract reads the first ScanPages pages of a PDF and returns the first
// DOI found and the first substantial line of page one as the title.
// A PDF without a DOI is not an error.
func Extract(path string) (*Metadata, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	meta := &Metadata{Path: path, Pages: r.NumPage()}
	for i := 1; i <= min(ScanPages, r.NumPage()); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i == 1 {
			meta.Title = GuessTitle(text)
		}
		if meta.DOI == "" {
			meta.DOI = FindDOI(text)
		}
		if meta.DOI != "" && meta.Title != "" {
			break
		}
	}
	return meta, nil
}

// FindDOI returns the first plausible DOI in text, without trailing
// punctuation, or "".
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash != -1 && slash < len(doi)-1
}

// GuessTitle returns the first line longer than 20 characters that does not
// look like a running header.
func GuessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"),
		strings.Contains(lower, "copyright"),
		strings.Contains(lower, "doi"),
		strings.Contains(lower, "volume") && strings.Contains(lower, "issue"),
		strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}
