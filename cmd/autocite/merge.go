package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/storage"
)

var (
	mergeOut     string
	mergeInPlace bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <existing.bib> <entries.jsonl>",
	Short: "Merge new BibTeX records into a bibliography",
	Long: `Merge new records into a bibliography without duplicating works.

entries.jsonl holds one record per line:
  {"key":"Smith2020Foo","doi":"10.1000/x","raw":"@article{Smith2020Foo, ...}"}

A record whose DOI (or, without a DOI, URL) is already present is skipped.
A record whose key is taken is re-keyed with a letter suffix.

Examples:
  autocite merge refs.bib new.jsonl --out merged.bib
  autocite merge refs.bib new.jsonl --in-place`,
	Args: cobra.ExactArgs(2),
	Run:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeOut, "out", "", "Write the merged bibliography here")
	mergeCmd.Flags().BoolVar(&mergeInPlace, "in-place", false, "Rewrite the existing bibliography")
	rootCmd.AddCommand(mergeCmd)
}

// MergeResponse is the output of the merge command.
type MergeResponse struct {
	*bibtex.MergeResult
	Written      string `json:"written,omitempty"`
	Bibliography string `json:"bibliography,omitempty"` // merged text when not written
}

func runMerge(cmd *cobra.Command, args []string) {
	existing, err := bibtex.ReadFile(args[0])
	if err != nil {
		exitWithError(ExitError, "reading bibliography: %v", err)
	}
	entries, err := storage.ReadAll[bibtex.BibliographyEntry](args[1])
	if err != nil {
		exitWithError(ExitDataError, "reading entries: %v", err)
	}

	res, err := bibtex.Merge(existing, entries)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	resp := MergeResponse{MergeResult: res}
	target := mergeOut
	if mergeInPlace {
		target = args[0]
	}
	if target != "" {
		if err := bibtex.WriteAtomic(target, res.Text); err != nil {
			exitWithError(ExitError, "writing %s: %v", target, err)
		}
		resp.Written = target
	} else {
		resp.Bibliography = res.Text
	}

	if target == "" && humanOutput {
		outputHuman("%s", res.Text)
		return
	}
	emit(resp, func() {
		outputHuman("Added %d, skipped %d\n", len(res.Added), len(res.Skipped))
		for _, e := range res.Added {
			outputHuman("  + %s\n", e.Key)
		}
		for _, s := range res.Skipped {
			outputHuman("  - %s (%s %s)\n", s.Entry.Key, s.Reason, s.ExistingKey)
		}
		outputHuman("Wrote %s\n", resp.Written)
	})
}
