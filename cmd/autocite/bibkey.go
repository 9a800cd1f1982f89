package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/bibtex"
)

var (
	bibkeyAuthor string
	bibkeyYear   int
	bibkeyTitle  string
	bibkeyBib    string
)

var bibkeyCmd = &cobra.Command{
	Use:   "bibkey",
	Short: "Generate a citation key",
	Long: `Generate a citation key from first-author surname, year and first
title word. With --bib the key is made unique against the bibliography by
appending a, b, ... z, aa, ... zz.

Examples:
  autocite bibkey --author "van der Berg" --year 2020 --title "Deep learning"
  autocite bibkey --author Smith --year 2020 --title Foo --bib refs.bib`,
	Args: cobra.NoArgs,
	Run:  runBibkey,
}

func init() {
	bibkeyCmd.Flags().StringVar(&bibkeyAuthor, "author", "", "First author surname")
	bibkeyCmd.Flags().IntVar(&bibkeyYear, "year", 0, "Publication year")
	bibkeyCmd.Flags().StringVar(&bibkeyTitle, "title", "", "Title")
	bibkeyCmd.Flags().StringVar(&bibkeyBib, "bib", "", "Bibliography whose keys must be avoided")
	rootCmd.AddCommand(bibkeyCmd)
}

// BibkeyResponse is the output of the bibkey command.
type BibkeyResponse struct {
	Base string `json:"base"`
	Key  string `json:"key"`
}

func runBibkey(cmd *cobra.Command, args []string) {
	author := bibkeyAuthor
	if author == "" {
		author = "Unknown"
	}
	year := ""
	if bibkeyYear > 0 {
		year = strconv.Itoa(bibkeyYear)
	}
	base := bibtex.MakeKey(author, year, bibtex.FirstTitleWord(bibkeyTitle))

	registry := bibtex.NewKeyRegistry()
	if bibkeyBib != "" {
		idx, err := bibtex.ParseFile(bibkeyBib)
		if err != nil {
			exitWithError(ExitError, "reading bibliography: %v", err)
		}
		registry = idx.Registry()
	}

	key, err := registry.Allocate(base)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	emit(BibkeyResponse{Base: base, Key: key}, func() {
		outputHuman("%s\n", key)
	})
}
