package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/matsen/autocite/internal/config"
	"github.com/matsen/autocite/internal/pipeline"
)

var (
	runPlan      string
	runBib       string
	runOut       string
	runCacheDir  string
	runNoCache   bool
	runTodo      bool
	runWriteMode string
	runWorkers   int
)

var runCmd = &cobra.Command{
	Use:   "run <input.tex>",
	Short: "Apply a citation plan to a manuscript",
	Long: `Apply a citation plan to a LaTeX manuscript.

The plan is a JSONL file with one claim per line:
  {"sentence_id":"S3","status":"OK","papers":[{"doi":"10.1038/...","title":"..."}]}

Writes revised.tex, references.bib, new_entries.jsonl, report.json and
report.md into the output directory. With bib_write_mode=inplace the
manuscript's bibliography is updated as well.

Examples:
  autocite run paper.tex --plan plan.jsonl
  autocite run paper.tex --plan plan.jsonl --out build --bib-write-mode output_dir_only`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPlan, "plan", "", "Citation plan (JSONL)")
	runCmd.Flags().StringVar(&runBib, "bib", "", "Bibliography path (default: detected from the manuscript)")
	runCmd.Flags().StringVar(&runOut, "out", config.DefaultOutputDir, "Output directory")
	runCmd.Flags().StringVar(&runCacheDir, "cache-dir", "", "Response cache directory")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "Disable the response cache")
	runCmd.Flags().BoolVar(&runTodo, "todo", true, "Insert TODO comments for unresolved claims")
	runCmd.Flags().StringVar(&runWriteMode, "bib-write-mode", "", "inplace or output_dir_only")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Maximum concurrent lookups")
	_ = runCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rc := openCache(cfg)
	defer rc.Close()

	runner := pipeline.New(cfg, newCrossrefClient(cfg, rc), logger)
	res, err := runner.Run(ctx, pipeline.Options{
		InputPath: args[0],
		BibPath:   runBib,
		PlanPath:  runPlan,
	})
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	emit(res, func() {
		rep := res.Report
		outputHuman("Run %s\n", rep.RunID)
		outputHuman("  sentences:        %d\n", rep.SentenceCount)
		outputHuman("  cited sentences:  %d\n", rep.CitedSentences)
		outputHuman("  TODO comments:    %d\n", rep.TodoComments)
		outputHuman("  new bib entries:  %d\n", rep.NewEntriesAddedCount)
		for _, k := range rep.NewBibKeysAdded {
			outputHuman("    + %s\n", k)
		}
		for _, w := range rep.Warnings {
			outputHuman("  warning: %s\n", w)
		}
		outputHuman("Wrote %s, %s and %s\n", res.RevisedPath, res.ReferencesPath, res.ReportPath)
		if res.BibUpdated {
			outputHuman("Updated %s\n", rep.BibPath)
		}
	})
}

// applyRunFlags lets explicitly set flags override the resolved config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	cfg.OutputDir = runOut
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = config.ExpandTilde(runCacheDir)
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.NoCache = runNoCache
	}
	if cmd.Flags().Changed("todo") {
		cfg.InsertTodoComment = runTodo
	}
	if cmd.Flags().Changed("bib-write-mode") {
		cfg.BibWriteMode = runWriteMode
	}
	if cmd.Flags().Changed("workers") {
		cfg.MaxFetchWorkers = runWorkers
	}
}
