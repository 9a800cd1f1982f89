package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/pipeline"
)

var addPDFBib string

var addPDFCmd = &cobra.Command{
	Use:   "add-pdf <paper.pdf>",
	Short: "Add the work in a local PDF to a bibliography",
	Long: `Extract the DOI from a local PDF (first pages, or a Crossref title
lookup when the text has none), fetch its BibTeX record and merge it into
the bibliography.

Examples:
  autocite add-pdf ~/papers/vaswani2017.pdf --bib refs.bib`,
	Args: cobra.ExactArgs(1),
	Run:  runAddPDF,
}

func init() {
	addPDFCmd.Flags().StringVar(&addPDFBib, "bib", "references.bib", "Bibliography to update")
	rootCmd.AddCommand(addPDFCmd)
}

func runAddPDF(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	rc := openCache(cfg)
	defer rc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := pipeline.AddPDF(ctx, args[0], addPDFBib, newCrossrefClient(cfg, rc))
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	emit(res, func() {
		switch {
		case res.Added:
			outputHuman("Added %s (DOI %s) to %s\n", res.Key, res.DOI, res.BibPath)
		case res.ExistingKey != "":
			outputHuman("Already present as %s (DOI %s)\n", res.ExistingKey, res.DOI)
		default:
			outputHuman("Nothing added for DOI %s\n", res.DOI)
		}
	})
}
