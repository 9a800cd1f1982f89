package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/latex"
	"github.com/matsen/autocite/internal/pipeline"
)

var citesBib string

var citesCmd = &cobra.Command{
	Use:   "cites <file|->",
	Short: "List citation commands in a manuscript",
	Long: `List every \cite-family command with its keys and offsets.

With --bib, keys missing from the bibliography are reported.

Examples:
  autocite cites paper.tex
  autocite cites paper.tex --bib refs.bib --human`,
	Args: cobra.ExactArgs(1),
	Run:  runCites,
}

func init() {
	citesCmd.Flags().StringVar(&citesBib, "bib", "", "Bibliography to check keys against")
	rootCmd.AddCommand(citesCmd)
}

// CitesResponse is the output of the cites command.
type CitesResponse struct {
	Spans   []latex.CiteSpan `json:"spans"`
	Keys    []string         `json:"keys"`
	Warning string           `json:"warning,omitempty"`
}

func runCites(cmd *cobra.Command, args []string) {
	text, err := readInput(args[0])
	if err != nil {
		exitWithError(ExitError, "reading input: %v", err)
	}

	spans := latex.ExtractCites(text)
	resp := CitesResponse{Spans: spans, Keys: latex.NormalizeKeys(latex.CiteKeys(spans))}
	if resp.Spans == nil {
		resp.Spans = []latex.CiteSpan{}
	}

	if citesBib != "" {
		idx, err := bibtex.ParseFile(citesBib)
		if err != nil {
			exitWithError(ExitError, "reading bibliography: %v", err)
		}
		resp.Warning = pipeline.MissingKeyWarning(resp.Keys, idx)
	}

	emit(resp, func() {
		for _, s := range spans {
			outputHuman("\\%s [%d,%d) %s\n", s.Command, s.Start, s.End, strings.Join(s.Keys, ", "))
		}
		outputHuman("%d commands, %d distinct keys\n", len(spans), len(resp.Keys))
		if resp.Warning != "" {
			outputHuman("warning: %s\n", resp.Warning)
		}
	})
}
