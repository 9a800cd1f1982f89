package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/dedupe"
	"github.com/matsen/autocite/internal/reference"
	"github.com/matsen/autocite/internal/s2"
)

var (
	searchLimit   int
	searchTitle   bool
	searchSeedDOI string
	searchRaw     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Semantic Scholar for candidate papers",
	Long: `Search Semantic Scholar for candidate papers.

Results are deduplicated unless --raw is given. With --title the query is
treated as a title and the best single match is returned. With --seed-doi
the references of the seed paper are added to the candidates.

Examples:
  autocite search "phylogenetic inference neural networks"
  autocite search "Attention is all you need" --title
  autocite search "protein language models" --seed-doi 10.1126/science.ade2574 --human`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", s2.DefaultSearchLimit, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchTitle, "title", false, "Look up a single paper by title")
	searchCmd.Flags().StringVar(&searchSeedDOI, "seed-doi", "", "Add references of this paper")
	searchCmd.Flags().BoolVar(&searchRaw, "raw", false, "Skip deduplication")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	rc := openCache(cfg)
	defer rc.Close()
	client := newS2Client(cfg, rc)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var records []reference.PaperRecord
	if searchTitle {
		rec, err := client.LookupByTitle(ctx, args[0])
		if err != nil {
			exitWithError(exitCodeFor(err), "%v", err)
		}
		records = append(records, *rec)
	} else {
		hits, err := client.SearchPapers(ctx, args[0], searchLimit)
		if err != nil {
			exitWithError(exitCodeFor(err), "%v", err)
		}
		records = hits
	}

	if searchSeedDOI != "" {
		related, err := client.RelatedFromSeed(ctx, searchSeedDOI, "", searchLimit)
		if err != nil {
			exitWithError(exitCodeFor(err), "%v", err)
		}
		records = append(records, related...)
	}

	if !searchRaw {
		records = dedupe.Candidates(records)
	}
	if records == nil {
		records = []reference.PaperRecord{}
	}

	emit(records, func() {
		if len(records) == 0 {
			outputHuman("No papers found.\n")
			return
		}
		for i, p := range records {
			outputHuman("%2d. %s\n", i+1, truncate(p.Title, TitleMaxLen))
			var first string
			if len(p.Authors) > 0 {
				first = p.Authors[0].DisplayName()
				if len(p.Authors) > 1 {
					first += " et al."
				}
			}
			outputHuman("    %s (%d) %s\n", first, p.Year, p.Venue)
			if p.DOI != "" {
				outputHuman("    DOI: %s\n", p.DOI)
			}
		}
	})
}
