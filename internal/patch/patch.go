// Package patch applies a batch of non-overlapping replacements to a text in
// a single pass.
package patch

import (
	"fmt"
	"sort"
	"strings"
)

// Replacement replaces text[Start:End] of the original text with Text.
type Replacement struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// RangeError reports a replacement whose range does not fit the text.
type RangeError struct {
	Start, End, Len int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("replacement range [%d,%d) invalid for text of length %d", e.Start, e.End, e.Len)
}

// OverlapError reports two replacements whose ranges intersect.
type OverlapError struct {
	First, Second Replacement
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("replacement [%d,%d) overlaps [%d,%d)",
		e.Second.Start, e.Second.End, e.First.Start, e.First.End)
}

// Apply returns text with every replacement applied, in ascending Start
// order. Ranges refer to the original text. Callers must not pass
// overlapping ranges; Apply does not check for them (see Validate). Ranges
// outside the text are reported as a *RangeError.
func Apply(text string, reps []Replacement) (string, error) {
	if len(reps) == 0 {
		return text, nil
	}

	sorted := sortedCopy(reps)
	for _, r := range sorted {
		if err := checkRange(r, len(text)); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, r := range sorted {
		b.WriteString(text[cursor:r.Start])
		b.WriteString(r.Text)
		cursor = r.End
	}
	b.WriteString(text[cursor:])
	return b.String(), nil
}

// Validate checks that every replacement fits text and that no two ranges
// overlap.
func Validate(text string, reps []Replacement) error {
	sorted := sortedCopy(reps)
	for i, r := range sorted {
		if err := checkRange(r, len(text)); err != nil {
			return err
		}
		if i > 0 && r.Start < sorted[i-1].End {
			return &OverlapError{First: sorted[i-1], Second: r}
		}
	}
	return nil
}

func checkRange(r Replacement, n int) error {
	if r.Start < 0 || r.End < r.Start || r.End > n {
		return &RangeError{Start: r.Start, End: r.End, Len: n}
	}
	return nil
}

func sortedCopy(reps []Replacement) []Replacement {
	sorted := append([]Replacement(nil), reps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}
