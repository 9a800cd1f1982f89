// Package segment splits manuscript text into offset-tracked sentence units.
//
// Offsets are byte offsets into the original text. Each unit's End absorbs
// the whitespace that follows its terminator, so unit boundaries never land
// in the middle of a whitespace run and the units tile the document.
package segment

import (
	"fmt"
	"iter"
	"strings"
)

// abbreviations never end a sentence. Matching is case-insensitive.
var abbreviations = []string{"e.g.", "i.e.", "et al.", "fig.", "sec.", "cf.", "etc."}

// windowSize is the length of the text window, ending at a terminator, that
// is checked against the abbreviation list.
const windowSize = 6

// Unit is one segmented sentence.
type Unit struct {
	ID    string `json:"id"`
	Text  string `json:"text"`  // trimmed content
	Start int    `json:"start"` // inclusive byte offset
	End   int    `json:"end"`   // exclusive byte offset, includes trailing whitespace
	Index int    `json:"index"`
}

// Split returns all sentence units of text in document order.
func Split(text string) []Unit {
	var units []Unit
	for u := range Sentences(text) {
		units = append(units, u)
	}
	return units
}

// Sentences lazily yields the sentence units of text. The sequence can be
// ranged over any number of times.
func Sentences(text string) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		index := 0
		emit := func(start, end int) bool {
			sent := strings.TrimSpace(text[start:end])
			if sent == "" {
				return true
			}
			u := Unit{
				ID:    fmt.Sprintf("S%d", index),
				Text:  sent,
				Start: start,
				End:   end,
				Index: index,
			}
			index++
			return yield(u)
		}

		start := 0
		i := 0
		for i < len(text) {
			if !isTerminator(text[i]) || isAbbreviation(text, i) {
				i++
				continue
			}
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			if !emit(start, j) {
				return
			}
			start = j
			i = j
		}
		if start < len(text) {
			emit(start, len(text))
		}
	}
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// isAbbreviation reports whether the terminator at i belongs to a known
// abbreviation. The window ending at i is clamped to the start of text.
// A period inside an abbreviation (the first "." of "e.g.") also counts.
func isAbbreviation(text string, i int) bool {
	lo := max(0, i-windowSize+1)
	window := strings.ToLower(text[lo : i+1])
	for _, abbrev := range abbreviations {
		if strings.HasSuffix(window, abbrev) {
			return true
		}
	}

	for _, abbrev := range abbreviations {
		for p := 0; p < len(abbrev)-1; p++ {
			if abbrev[p] != text[i] {
				continue
			}
			s := i - p
			e := s + len(abbrev)
			if s < 0 || e > len(text) {
				continue
			}
			if strings.EqualFold(text[s:e], abbrev) {
				return true
			}
		}
	}
	return false
}
