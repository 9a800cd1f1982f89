package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/dedupe"
	"github.com/matsen/autocite/internal/reference"
	"github.com/matsen/autocite/internal/storage"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <records.jsonl>",
	Short: "Collapse duplicate candidate papers",
	Long: `Collapse candidate paper records that describe the same work.

Records sharing a DOI (case-insensitive) are merged; records without a DOI
are clustered by title similarity. From each group the record with the most
quality signals (abstract, DOI, citations) survives.

Examples:
  autocite dedupe candidates.jsonl
  autocite dedupe candidates.jsonl --human`,
	Args: cobra.ExactArgs(1),
	Run:  runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}

// DedupeResponse is the output of the dedupe command.
type DedupeResponse struct {
	Input      int                     `json:"input"`
	Output     int                     `json:"output"`
	Candidates []reference.PaperRecord `json:"candidates"`
}

func runDedupe(cmd *cobra.Command, args []string) {
	records, err := storage.ReadAll[reference.PaperRecord](args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading records: %v", err)
	}

	out := dedupe.Candidates(records)
	if out == nil {
		out = []reference.PaperRecord{}
	}
	resp := DedupeResponse{Input: len(records), Output: len(out), Candidates: out}

	emit(resp, func() {
		outputHuman("%d records -> %d distinct works\n", resp.Input, resp.Output)
		for _, p := range out {
			id := p.DOI
			if id == "" {
				id = p.URL
			}
			outputHuman("  %s (%d) %s\n", truncate(p.Title, TitleMaxLen), p.Year, id)
		}
	})
}
