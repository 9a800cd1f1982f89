package bibtex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/autocite/internal/reference"
)

// ToBibTeX renders a candidate record as an @article or @inproceedings
// record under key.
func ToBibTeX(p reference.PaperRecord, key string) string {
	entryType := determineEntryType(p.Venue)
	var b strings.Builder

	fmt.Fprintf(&b, "@%s{%s,\n", entryType, key)

	if len(p.Authors) > 0 {
		fmt.Fprintf(&b, "  author = {%s},\n", FormatAuthors(p.Authors))
	}

	fmt.Fprintf(&b, "  title = {%s},\n", EscapeLaTeX(p.Title))

	if p.Venue != "" {
		fieldName := "journal"
		if entryType == "inproceedings" {
			fieldName = "booktitle"
		}
		fmt.Fprintf(&b, "  %s = {%s},\n", fieldName, EscapeLaTeX(p.Venue))
	}

	if p.Year > 0 {
		fmt.Fprintf(&b, "  year = {%d},\n", p.Year)
	}

	if p.DOI != "" {
		fmt.Fprintf(&b, "  doi = {%s},\n", p.DOI)
	}

	if p.URL != "" {
		fmt.Fprintf(&b, "  url = {%s},\n", p.URL)
	}

	b.WriteString("}\n")
	return b.String()
}

// MiscEntry renders a @misc record for a web resource without a DOI. The
// note is only written when the record has no year.
func MiscEntry(p reference.PaperRecord, key, note string) string {
	var fields []string
	if p.Title != "" {
		fields = append(fields, fmt.Sprintf("title = {%s}", EscapeLaTeX(p.Title)))
	}
	if len(p.Authors) > 0 {
		fields = append(fields, fmt.Sprintf("author = {%s}", FormatAuthors(p.Authors)))
	}
	if p.Year > 0 {
		fields = append(fields, "year = {"+strconv.Itoa(p.Year)+"}")
	}
	if p.URL != "" {
		fields = append(fields, fmt.Sprintf("url = {%s}", p.URL))
	}
	if note != "" && p.Year == 0 {
		fields = append(fields, fmt.Sprintf("note = {%s}", note))
	}

	if len(fields) == 0 {
		return fmt.Sprintf("@misc{%s,\n}\n", key)
	}
	return fmt.Sprintf("@misc{%s,\n  %s\n}\n", key, strings.Join(fields, ",\n  "))
}

// determineEntryType returns the BibTeX entry type for a venue.
func determineEntryType(venue string) string {
	venue = strings.ToLower(venue)

	// Preprints
	if strings.Contains(venue, "arxiv") ||
		strings.Contains(venue, "biorxiv") ||
		strings.Contains(venue, "medrxiv") {
		return "article"
	}

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	return "article"
}

// FormatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func FormatAuthors(authors []reference.Author) string {
	formatted := make([]string, 0, len(authors))
	for _, a := range authors {
		formatted = append(formatted, a.BibTeXName())
	}
	return strings.Join(formatted, " and ")
}

// EscapeLaTeX escapes special LaTeX characters.
func EscapeLaTeX(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
