package reference

import "strings"

// Author represents a paper author with optional ORCID identifier.
type Author struct {
	First string `json:"first"`           // First/given name(s)
	Last  string `json:"last"`            // Last/family name
	ORCID string `json:"orcid,omitempty"` // ORCID identifier (without URL prefix)
}

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// ParseAuthor splits a display name into an Author.
// Accepts both "Last, First" and "First Last" forms.
//
// Known limitations:
// - Multi-part surnames (von Neumann, van der Waals) split incorrectly in "First Last" form
// - Non-Western name formats may not be handled correctly
func ParseAuthor(name string) Author {
	name = strings.TrimSpace(name)
	if name == "" {
		return Author{}
	}

	if last, first, ok := strings.Cut(name, ","); ok {
		return Author{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
	}

	parts := strings.Fields(name)
	if len(parts) == 1 {
		return Author{Last: parts[0]}
	}

	// Keep suffix with last name
	lastPart := strings.ToLower(parts[len(parts)-1])
	if nameSuffixes[lastPart] && len(parts) > 2 {
		return Author{
			First: strings.Join(parts[:len(parts)-2], " "),
			Last:  parts[len(parts)-2] + " " + parts[len(parts)-1],
		}
	}

	return Author{
		First: strings.Join(parts[:len(parts)-1], " "),
		Last:  parts[len(parts)-1],
	}
}

// ParseAuthorList splits a BibTeX author field ("A and B and C").
func ParseAuthorList(field string) []Author {
	var authors []Author
	for _, name := range strings.Split(field, " and ") {
		if a := ParseAuthor(name); a.Last != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// BibTeXName formats the author as "Last, First" (or just "Last").
func (a Author) BibTeXName() string {
	if a.First != "" {
		return a.Last + ", " + a.First
	}
	return a.Last
}

// DisplayName formats the author as "First Last".
func (a Author) DisplayName() string {
	if a.First != "" {
		return a.First + " " + a.Last
	}
	return a.Last
}
