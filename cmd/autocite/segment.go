package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/latex"
	"github.com/matsen/autocite/internal/segment"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <file|->",
	Short: "Split a manuscript into sentence units",
	Long: `Split a manuscript into sentence units with byte offsets.

Sentence IDs (S0, S1, ...) are the identifiers a citation plan refers to.

Examples:
  autocite segment paper.tex
  cat paper.tex | autocite segment - --human`,
	Args: cobra.ExactArgs(1),
	Run:  runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)
}

// SegmentUnit is a sentence unit with its citation state.
type SegmentUnit struct {
	segment.Unit
	HasCite bool `json:"has_cite"`
}

func runSegment(cmd *cobra.Command, args []string) {
	text, err := readInput(args[0])
	if err != nil {
		exitWithError(ExitError, "reading input: %v", err)
	}

	units := make([]SegmentUnit, 0)
	for u := range segment.Sentences(text) {
		units = append(units, SegmentUnit{Unit: u, HasCite: latex.HasCite(u.Text)})
	}

	emit(units, func() {
		for _, u := range units {
			mark := " "
			if u.HasCite {
				mark = "*"
			}
			outputHuman("%-5s %s [%d,%d) %s\n", u.ID, mark, u.Start, u.End, truncate(u.Text, TitleMaxLen))
		}
	})
}
