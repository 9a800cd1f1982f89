package pipeline

import (
	"fmt"
	"strings"

	"github.com/matsen/autocite/internal/latex"
	"github.com/matsen/autocite/internal/patch"
	"github.com/matsen/autocite/internal/segment"
)

// maxTodoQueries caps the queries quoted in a TODO comment.
const maxTodoQueries = 3

// InsertOptions controls citation insertion.
type InsertOptions struct {
	// TodoComments adds a "% TODO citation needed" comment after every
	// NEED_MANUAL sentence.
	TodoComments bool
	// ValidKeys are the keys a citation may use (existing and new).
	ValidKeys map[string]bool
}

// Insertion is the outcome of Insert.
type Insertion struct {
	Text     string
	Cited    int // sentences whose citation changed
	Todos    int
	Warnings []string
}

// Insert rewrites the sentences named by claims. OK claims have their keys
// merged into the sentence's citation; keys outside opts.ValidKeys are
// dropped. NEED_MANUAL claims get a TODO comment when enabled. Every edit is
// applied in one pass over the original text; the whitespace following each
// sentence is kept.
func Insert(text string, units []segment.Unit, claims []Claim, opts InsertOptions) (*Insertion, error) {
	byID := make(map[string]segment.Unit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}

	res := &Insertion{}
	var reps []patch.Replacement
	seen := make(map[string]bool)

	for _, c := range claims {
		u, ok := byID[c.SentenceID]
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Claim sentence %s not found in document", c.SentenceID))
			continue
		}
		if seen[c.SentenceID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Duplicate claim for sentence %s ignored", c.SentenceID))
			continue
		}
		seen[c.SentenceID] = true

		raw := text[u.Start:u.End]
		lead, core, trail := splitSpace(raw)

		switch c.Status {
		case StatusOK:
			keys := filterKeys(c.Keys, opts.ValidKeys)
			if len(keys) == 0 {
				continue
			}
			composed := latex.Compose(core, keys)
			if composed != core {
				reps = append(reps, patch.Replacement{Start: u.Start, End: u.End, Text: lead + composed + trail})
				res.Cited++
			}
		case StatusNeedManual:
			if !opts.TodoComments {
				continue
			}
			if !strings.Contains(trail, "\n") {
				trail = "\n"
			}
			reps = append(reps, patch.Replacement{
				Start: u.Start,
				End:   u.End,
				Text:  lead + core + " " + TodoComment(c) + trail,
			})
			res.Todos++
		}
	}

	out, err := patch.Apply(text, reps)
	if err != nil {
		return nil, fmt.Errorf("applying citations: %w", err)
	}
	res.Text = out
	return res, nil
}

// TodoComment renders the LaTeX comment marking an unsupported claim. The
// comment is always a single line.
func TodoComment(c Claim) string {
	claimType := c.ClaimType
	if claimType == "" {
		claimType = "unknown"
	}
	rationale := c.Rationale
	if rationale == "" {
		rationale = "insufficient evidence"
	}

	var queries []string
	for _, q := range c.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
		if len(queries) == maxTodoQueries {
			break
		}
	}

	comment := fmt.Sprintf("%% TODO citation needed: %s; %s; suggested queries: %s",
		claimType, rationale, strings.Join(queries, "; "))
	return strings.Join(strings.Fields(comment), " ")
}

// splitSpace separates leading and trailing whitespace from s.
func splitSpace(s string) (lead, core, trail string) {
	trimmedLeft := strings.TrimLeft(s, " \t\r\n")
	lead = s[:len(s)-len(trimmedLeft)]
	core = strings.TrimRight(trimmedLeft, " \t\r\n")
	trail = trimmedLeft[len(core):]
	return lead, core, trail
}

func filterKeys(keys []string, valid map[string]bool) []string {
	var out []string
	for _, k := range keys {
		if valid[k] {
			out = append(out, k)
		}
	}
	return out
}
