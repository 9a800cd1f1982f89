// Package latex extracts and composes inline citation commands in LaTeX text.
package latex

import (
	"regexp"
	"strings"
)

// citeCmdRegex matches the \cite family (\cite, \citep, \citet, \citealp, ...)
// followed by a brace-delimited key list. Citation commands cannot nest, so
// the key list never contains a closing brace.
var citeCmdRegex = regexp.MustCompile(`\\(cite\w*)\s*\{([^}]*)\}`)

// terminatorRegex matches the trailing punctuation run of a sentence.
var terminatorRegex = regexp.MustCompile(`([.!?;:,]+)\s*$`)

// CiteSpan is one occurrence of a citation command in a text.
type CiteSpan struct {
	Command string   `json:"command"` // e.g. "cite", "citep"
	Keys    []string `json:"keys"`    // as written, trimmed, empties dropped
	Start   int      `json:"start"`
	End     int      `json:"end"`
}

// ExtractCites returns every citation command in text, in document order.
func ExtractCites(text string) []CiteSpan {
	var spans []CiteSpan
	for _, m := range citeCmdRegex.FindAllStringSubmatchIndex(text, -1) {
		spans = append(spans, CiteSpan{
			Command: text[m[2]:m[3]],
			Keys:    splitKeys(text[m[4]:m[5]]),
			Start:   m[0],
			End:     m[1],
		})
	}
	return spans
}

// HasCite reports whether text contains at least one citation command.
func HasCite(text string) bool {
	return citeCmdRegex.MatchString(text)
}

// CiteKeys flattens the keys of all spans, deduplicated in first-seen order.
func CiteKeys(spans []CiteSpan) []string {
	var keys []string
	for _, s := range spans {
		keys = append(keys, s.Keys...)
	}
	return NormalizeKeys(keys)
}

// NormalizeKeys trims keys and removes empties and exact duplicates while
// preserving order.
func NormalizeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		cleaned = append(cleaned, k)
	}
	return cleaned
}

func splitKeys(list string) []string {
	var keys []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
