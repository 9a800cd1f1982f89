package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/config"
)

// Report summarizes one run.
type Report struct {
	RunID                  string           `json:"run_id"`
	StartedAt              time.Time        `json:"started_at"`
	InputPath              string           `json:"input_path"`
	BibPath                string           `json:"bib_path"`
	BibCreated             bool             `json:"bib_created"`
	SentenceCount          int              `json:"sentence_count"`
	ExistingCitationsCount int              `json:"existing_citations_count"`
	ExistingEntriesCount   int              `json:"existing_entries_count"`
	NewEntriesAddedCount   int              `json:"new_entries_added_count"`
	NewBibKeysAdded        []string         `json:"new_bibkeys_added"`
	Skipped                []bibtex.Skipped `json:"skipped,omitempty"`
	CitedSentences         int              `json:"cited_sentences"`
	TodoComments           int              `json:"todo_comments"`
	Warnings               []string         `json:"warnings"`
	Claims                 []ClaimReport    `json:"claims"`
}

// ClaimReport is the per-claim section of a report.
type ClaimReport struct {
	SentenceID string   `json:"sentence_id"`
	Sentence   string   `json:"sentence"`
	ClaimType  string   `json:"claim_type"`
	Rationale  string   `json:"rationale"`
	Queries    []string `json:"queries"`
	Status     string   `json:"status"`
	Notes      string   `json:"notes"`
	Keys       []string `json:"keys"`
	Papers     []string `json:"papers"`
}

// MissingKeyWarning lists cited keys the bibliography does not define, or ""
// when there are none.
func MissingKeyWarning(cited []string, idx *bibtex.Index) string {
	var missing []string
	seen := make(map[string]bool)
	for _, k := range cited {
		if !idx.HasKey(k) && !seen[k] {
			seen[k] = true
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	sort.Strings(missing)
	return "Cite keys missing in bib: " + strings.Join(missing, ", ")
}

// WriteReport writes report.json and report.md into dir.
func WriteReport(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.ReportJSONFile), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, config.ReportMDFile), []byte(r.Markdown()), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Markdown renders the report for humans.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Citation Report\n\n")
	fmt.Fprintf(&b, "- Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "- Input: %s\n\n", r.InputPath)

	b.WriteString("## Existing citations found\n\n")
	fmt.Fprintf(&b, "- Count: %d\n", r.ExistingCitationsCount)
	fmt.Fprintf(&b, "- Sentences: %d\n\n", r.SentenceCount)

	b.WriteString("## BibTeX update summary\n\n")
	fmt.Fprintf(&b, "- bib_path: %s\n", r.BibPath)
	fmt.Fprintf(&b, "- existing_entries_count: %d\n", r.ExistingEntriesCount)
	fmt.Fprintf(&b, "- new_entries_added_count: %d\n", r.NewEntriesAddedCount)
	added := "none"
	if len(r.NewBibKeysAdded) > 0 {
		added = strings.Join(r.NewBibKeysAdded, ", ")
	}
	fmt.Fprintf(&b, "- new_bibkeys_added: %s\n", added)
	if len(r.Warnings) > 0 {
		b.WriteString("- warnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	b.WriteString("\n## Claims\n\n")
	for _, c := range r.Claims {
		fmt.Fprintf(&b, "### %s\n\n", c.SentenceID)
		fmt.Fprintf(&b, "- sentence: %s\n", c.Sentence)
		fmt.Fprintf(&b, "- claim_type: %s\n", c.ClaimType)
		fmt.Fprintf(&b, "- rationale: %s\n", c.Rationale)
		fmt.Fprintf(&b, "- status: %s\n", c.Status)
		fmt.Fprintf(&b, "- notes: %s\n", c.Notes)
		fmt.Fprintf(&b, "- queries: %s\n", strings.Join(c.Queries, ", "))
		fmt.Fprintf(&b, "- keys: %s\n", strings.Join(c.Keys, ", "))
		b.WriteString("- selected papers:\n")
		for _, p := range c.Papers {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
		b.WriteString("\n")
	}
	return b.String()
}
