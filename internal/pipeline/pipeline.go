// Package pipeline runs a citation plan against a LaTeX manuscript: it loads
// the manuscript and its bibliography, turns the planned papers into
// bibliography records, inserts the citations and writes the revised
// manuscript, the merged bibliography and a report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/config"
	"github.com/matsen/autocite/internal/latex"
	"github.com/matsen/autocite/internal/segment"
	"github.com/matsen/autocite/internal/storage"
)

// Options names the inputs of a run. Claims, when non-nil, take precedence
// over PlanPath.
type Options struct {
	InputPath string
	BibPath   string
	PlanPath  string
	Claims    []Claim
}

// Result lists what a run produced.
type Result struct {
	Report         *Report `json:"report"`
	RevisedPath    string  `json:"revised_path"`
	ReferencesPath string  `json:"references_path"`
	NewEntriesPath string  `json:"new_entries_path"`
	ReportPath     string  `json:"report_path"`
	BibUpdated     bool    `json:"bib_updated"`
}

// Runner executes runs with a fixed configuration.
type Runner struct {
	cfg      *config.Config
	resolver Resolver
	logger   *zap.Logger
	newID    func() string
	now      func() time.Time
}

// New creates a Runner. A nil logger disables logging.
func New(cfg *config.Config, resolver Resolver, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

// Run executes every stage and writes the outputs into the configured
// output directory.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := r.newID()
	log := r.logger.With(zap.String("run_id", runID))
	started := r.now()

	doc, err := Ingest(opts.InputPath, opts.BibPath)
	if err != nil {
		return nil, err
	}
	log.Info("ingested manuscript",
		zap.String("input", doc.Path),
		zap.String("bib", doc.BibPath),
		zap.Bool("bib_created", doc.BibCreated))

	claims := opts.Claims
	if claims == nil && opts.PlanPath != "" {
		if claims, err = LoadPlan(opts.PlanPath); err != nil {
			return nil, err
		}
	}

	units := segment.Split(doc.Text)
	cites := latex.ExtractCites(doc.Text)
	bibText, err := bibtex.ReadFile(doc.BibPath)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	idx := bibtex.ParseIndex(bibText)
	log.Info("parsed inputs",
		zap.Int("sentences", len(units)),
		zap.Int("citations", len(cites)),
		zap.Int("bib_entries", len(idx.Order)),
		zap.Int("claims", len(claims)))

	synth, err := NewSynthesizer(r.resolver, r.cfg.MaxFetchWorkers, log).Synthesize(ctx, claims, idx)
	if err != nil {
		return nil, err
	}

	merged, err := bibtex.Merge(bibText, synth.Entries)
	if err != nil {
		return nil, fmt.Errorf("merging bibliography: %w", err)
	}

	valid := make(map[string]bool, len(idx.Order)+len(merged.Added))
	for _, k := range idx.Order {
		valid[k] = true
	}
	for _, e := range merged.Added {
		valid[e.Key] = true
	}

	ins, err := Insert(doc.Text, units, synth.Claims, InsertOptions{
		TodoComments: r.cfg.InsertTodoComment,
		ValidKeys:    valid,
	})
	if err != nil {
		return nil, err
	}
	log.Info("inserted citations", zap.Int("cited", ins.Cited), zap.Int("todos", ins.Todos))

	res, err := r.write(doc, ins.Text, merged, synth)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:                  runID,
		StartedAt:              started,
		InputPath:              doc.Path,
		BibPath:                doc.BibPath,
		BibCreated:             doc.BibCreated,
		SentenceCount:          len(units),
		ExistingCitationsCount: len(cites),
		ExistingEntriesCount:   len(idx.Order),
		NewEntriesAddedCount:   len(merged.Added),
		NewBibKeysAdded:        addedKeys(merged),
		Skipped:                merged.Skipped,
		CitedSentences:         ins.Cited,
		TodoComments:           ins.Todos,
		Warnings:               append(append([]string{}, doc.Warnings...), ins.Warnings...),
		Claims:                 claimReports(synth.Claims, units),
	}
	if w := MissingKeyWarning(latex.CiteKeys(cites), idx); w != "" {
		rep.Warnings = append(rep.Warnings, w)
	}
	if err := WriteReport(r.cfg.OutputDir, rep); err != nil {
		return nil, err
	}
	res.Report = rep
	res.ReportPath = r.cfg.OutputPath(config.ReportJSONFile)

	log.Info("run complete",
		zap.Int("new_entries", rep.NewEntriesAddedCount),
		zap.Int("warnings", len(rep.Warnings)),
		zap.Duration("elapsed", r.now().Sub(started)))
	return res, nil
}

// write stores the revised manuscript, the merged bibliography and the new
// entry mapping.
func (r *Runner) write(doc *Document, revised string, merged *bibtex.MergeResult, synth *Synthesis) (*Result, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	res := &Result{
		RevisedPath:    r.cfg.OutputPath(config.RevisedFile),
		ReferencesPath: r.cfg.OutputPath(config.ReferencesFile),
		NewEntriesPath: r.cfg.OutputPath(config.NewEntriesFile),
	}

	if err := bibtex.WriteAtomic(res.RevisedPath, revised); err != nil {
		return nil, fmt.Errorf("writing revised manuscript: %w", err)
	}
	if err := bibtex.WriteAtomic(res.ReferencesPath, merged.Text); err != nil {
		return nil, fmt.Errorf("writing references: %w", err)
	}
	if r.cfg.BibWriteMode == config.WriteInPlace {
		if err := bibtex.WriteAtomic(doc.BibPath, merged.Text); err != nil {
			return nil, fmt.Errorf("updating %s: %w", doc.BibPath, err)
		}
		res.BibUpdated = true
	}

	added := make(map[string]bool, len(merged.Added))
	for _, e := range merged.Added {
		added[e.Key] = true
	}
	entries := make([]NewEntry, 0, len(synth.New))
	for _, e := range synth.New {
		if added[e.Key] {
			entries = append(entries, e)
		}
	}
	if err := storage.WriteAll(res.NewEntriesPath, entries); err != nil {
		return nil, fmt.Errorf("writing new entries: %w", err)
	}
	return res, nil
}

func addedKeys(m *bibtex.MergeResult) []string {
	keys := make([]string, len(m.Added))
	for i, e := range m.Added {
		keys[i] = e.Key
	}
	return keys
}

func claimReports(claims []Claim, units []segment.Unit) []ClaimReport {
	text := make(map[string]string, len(units))
	for _, u := range units {
		text[u.ID] = u.Text
	}

	out := make([]ClaimReport, len(claims))
	for i, c := range claims {
		papers := make([]string, len(c.Papers))
		for j, p := range c.Papers {
			papers[j] = fmt.Sprintf("%s (%d) DOI=%s", p.Title, p.Year, p.DOI)
		}
		out[i] = ClaimReport{
			SentenceID: c.SentenceID,
			Sentence:   text[c.SentenceID],
			ClaimType:  c.ClaimType,
			Rationale:  c.Rationale,
			Queries:    c.Queries,
			Status:     c.Status,
			Notes:      c.Notes,
			Keys:       c.Keys,
			Papers:     papers,
		}
	}
	return out
}
