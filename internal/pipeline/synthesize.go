package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/dedupe"
	"github.com/matsen/autocite/internal/reference"
)

// Resolver finds DOIs for titled works and fetches BibTeX records and
// metadata by DOI. *crossref.Client implements it.
type Resolver interface {
	ResolveDOI(ctx context.Context, title string, year int) (string, error)
	BibTeX(ctx context.Context, doi string) (string, error)
	Record(ctx context.Context, doi string) (*reference.PaperRecord, error)
}

// Entry kinds recorded in new_entries.jsonl.
const (
	KindDOI = "doi"
	KindURL = "url"
)

// NewEntry maps a newly allocated key to the record it was built from.
type NewEntry struct {
	Key    string                   `json:"key"`
	Kind   string                   `json:"kind"`
	Claim  string                   `json:"sentence_id"`
	Record reference.PaperRecord    `json:"record"`
	Entry  bibtex.BibliographyEntry `json:"entry"`
}

// Synthesis is the result of turning plan papers into bibliography records.
type Synthesis struct {
	Claims  []Claim
	Entries []bibtex.BibliographyEntry
	New     []NewEntry
}

// Synthesizer resolves plan papers into citation keys, creating new records
// for works the bibliography does not hold yet.
type Synthesizer struct {
	resolver Resolver
	workers  int
	logger   *zap.Logger
	now      func() time.Time
}

// NewSynthesizer creates a Synthesizer. workers bounds concurrent lookups.
func NewSynthesizer(resolver Resolver, workers int, logger *zap.Logger) *Synthesizer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{resolver: resolver, workers: workers, logger: logger, now: time.Now}
}

// synthState carries the key registry and identity maps across claims. It is
// only touched from the sequential allocation phase.
type synthState struct {
	idx   *bibtex.Index
	keys  *bibtex.KeyRegistry
	byDOI map[string]string
	byURL map[string]string
	out   *Synthesis
	note  string
}

// fetched is the lookup result for one paper. rec is only set when the DOI
// has no BibTeX record but its metadata is known.
type fetched struct {
	doi string
	bib string
	rec *reference.PaperRecord
}

// Synthesize processes claims in order. Lookups for the papers of a claim run
// concurrently; key allocation is sequential, so keys are deterministic for a
// fixed plan and fixed lookup results. Claims that end up with no usable
// paper are marked NEED_MANUAL. The input slice is not modified.
func (s *Synthesizer) Synthesize(ctx context.Context, claims []Claim, idx *bibtex.Index) (*Synthesis, error) {
	st := &synthState{
		idx:   idx,
		keys:  idx.Registry(),
		byDOI: make(map[string]string),
		byURL: make(map[string]string),
		out:   &Synthesis{Claims: make([]Claim, len(claims))},
		note:  "Accessed: " + s.now().Format("2006-01-02"),
	}

	for i, claim := range claims {
		claim.Keys = nil
		if claim.Status != StatusOK {
			st.out.Claims[i] = claim
			continue
		}

		papers := dedupe.Candidates(claim.Papers)
		results, err := s.fetch(ctx, papers, st)
		if err != nil {
			return nil, err
		}

		var kept []reference.PaperRecord
		for j, p := range papers {
			if results[j].doi != "" {
				p.DOI = results[j].doi
			}
			if results[j].rec != nil {
				fillFromRecord(&p, *results[j].rec)
			}
			key, ok, err := st.assign(claim.SentenceID, &p, results[j])
			if err != nil {
				return nil, err
			}
			if !ok {
				s.logger.Debug("skipping paper without DOI or URL", zap.String("title", p.Title))
				continue
			}
			kept = append(kept, p)
			claim.Keys = appendUnique(claim.Keys, key)
		}
		claim.Papers = kept

		if len(claim.Keys) == 0 {
			claim.Status = StatusNeedManual
			claim.Notes = "No reliable BibTeX (missing DOI and URL)."
			s.logger.Warn("claim has no usable paper", zap.String("sentence", claim.SentenceID))
		} else {
			s.logger.Info("resolved claim",
				zap.String("sentence", claim.SentenceID),
				zap.Int("papers", len(papers)),
				zap.Int("keys", len(claim.Keys)))
		}
		st.out.Claims[i] = claim
	}

	s.logger.Info("synthesized entries", zap.Int("new", len(st.out.Entries)))
	return st.out, nil
}

// fetch resolves missing DOIs and downloads BibTeX for works not yet held.
// When a DOI has no BibTeX record its metadata is fetched instead. Lookup
// failures are logged and treated as "not found".
func (s *Synthesizer) fetch(ctx context.Context, papers []reference.PaperRecord, st *synthState) ([]fetched, error) {
	out := make([]fetched, len(papers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, p := range papers {
		g.Go(func() error {
			doi := strings.TrimSpace(p.DOI)
			if doi == "" && strings.TrimSpace(p.Title) != "" {
				resolved, err := s.resolver.ResolveDOI(gctx, p.Title, p.Year)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					s.logger.Warn("DOI lookup failed", zap.String("title", p.Title), zap.Error(err))
				}
				doi = resolved
			}
			out[i].doi = doi
			if doi == "" || st.known(doi, p.URL) {
				return nil
			}

			bib, err := s.resolver.BibTeX(gctx, doi)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("BibTeX fetch failed", zap.String("doi", doi), zap.Error(err))
				return nil
			}
			if strings.TrimSpace(bib) != "" {
				out[i].bib = bib
				return nil
			}
			rec, err := s.resolver.Record(gctx, doi)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("metadata fetch failed", zap.String("doi", doi), zap.Error(err))
				return nil
			}
			out[i].rec = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching bibliography data: %w", err)
	}
	return out, nil
}

// known reports whether a DOI or URL already has a key. Called
// concurrently, but the maps are only written between fetch rounds.
func (st *synthState) known(doi, url string) bool {
	_, ok := st.existingKey(bibtex.NormalizeDOI(doi), bibtex.NormalizeURL(url))
	return ok
}

// existingKey returns the key already held for a normalized DOI, or failing
// that a normalized URL, in the corpus or among this run's new entries.
func (st *synthState) existingKey(doi, url string) (string, bool) {
	if doi != "" {
		if key, ok := st.idx.KeyForDOI(doi); ok {
			return key, true
		}
		if key, ok := st.byDOI[doi]; ok {
			return key, true
		}
	}
	if url != "" {
		if key, ok := st.idx.KeyForURL(url); ok {
			return key, true
		}
		if key, ok := st.byURL[url]; ok {
			return key, true
		}
	}
	return "", false
}

// assign returns the key citing p, creating a record when needed. A work
// the corpus or this run already holds, by DOI first and URL second, reuses
// that key. A DOI work gets its fetched BibTeX record, or one rendered from
// its metadata when Crossref knows the DOI but has no record; a URL-only
// work gets a @misc record. It reports false when none of these apply.
func (st *synthState) assign(claimID string, p *reference.PaperRecord, f fetched) (string, bool, error) {
	doi := bibtex.NormalizeDOI(p.DOI)
	url := bibtex.NormalizeURL(p.URL)
	if key, ok := st.existingKey(doi, url); ok {
		return key, true, nil
	}
	if doi != "" {
		if strings.TrimSpace(f.bib) != "" || (f.rec != nil && strings.TrimSpace(p.Title) != "") {
			key, err := st.addDOIEntry(claimID, p, doi, f.bib)
			return key, err == nil, err
		}
	}
	if url != "" && strings.TrimSpace(p.Title) != "" {
		key, err := st.addMiscEntry(claimID, p, url)
		return key, err == nil, err
	}
	return "", false, nil
}

// addDOIEntry records a DOI work. A parseable fetched record keeps its own
// key as the base key; otherwise the record is rendered from p.
func (st *synthState) addDOIEntry(claimID string, p *reference.PaperRecord, doi, bib string) (string, error) {
	var parsed []bibtex.Entry
	if strings.TrimSpace(bib) != "" {
		parsed = bibtex.Parse(bib)
	}
	var key string
	var err error
	if len(parsed) > 0 && parsed[0].Key != "" {
		fillFromEntry(p, parsed[0])
		key, err = st.keys.Allocate(parsed[0].Key)
	} else {
		key, err = st.allocateForRecord(*p)
	}
	if err != nil {
		return "", fmt.Errorf("allocating key for %s: %w", doi, err)
	}
	raw := bibtex.ToBibTeX(*p, key)
	if len(parsed) > 0 {
		raw = bibtex.Rekey(strings.TrimSpace(bib), key)
	}
	entry := bibtex.BibliographyEntry{
		Key:     key,
		DOI:     p.DOI,
		URL:     p.URL,
		Raw:     raw,
		Title:   p.Title,
		Year:    yearString(p.Year),
		Authors: authorList(p.Authors),
	}
	st.byDOI[doi] = key
	if url := bibtex.NormalizeURL(p.URL); url != "" {
		st.byURL[url] = key
	}
	st.record(claimID, KindDOI, *p, entry)
	return key, nil
}

func (st *synthState) addMiscEntry(claimID string, p *reference.PaperRecord, url string) (string, error) {
	key, err := st.allocateForRecord(*p)
	if err != nil {
		return "", fmt.Errorf("allocating key for %s: %w", p.URL, err)
	}
	entry := bibtex.BibliographyEntry{
		Key:     key,
		URL:     p.URL,
		Raw:     bibtex.MiscEntry(*p, key, st.note),
		Title:   p.Title,
		Year:    yearString(p.Year),
		Authors: authorList(p.Authors),
	}
	st.byURL[url] = key
	st.record(claimID, KindURL, *p, entry)
	return key, nil
}

func (st *synthState) allocateForRecord(p reference.PaperRecord) (string, error) {
	return bibtex.AllocateKey(st.keys,
		bibtex.FirstAuthorLast(p.Authors), yearString(p.Year), bibtex.FirstTitleWord(p.Title))
}

func (st *synthState) record(claimID, kind string, p reference.PaperRecord, entry bibtex.BibliographyEntry) {
	st.out.Entries = append(st.out.Entries, entry)
	st.out.New = append(st.out.New, NewEntry{
		Key:    entry.Key,
		Kind:   kind,
		Claim:  claimID,
		Record: p,
		Entry:  entry,
	})
}

// fillFromEntry copies authors and year from a fetched record when the
// candidate lacks them.
func fillFromEntry(p *reference.PaperRecord, e bibtex.Entry) {
	if len(p.Authors) == 0 {
		p.Authors = reference.ParseAuthorList(e.Field("author"))
	}
	if p.Year == 0 {
		if y, err := strconv.Atoi(strings.TrimSpace(e.Field("year"))); err == nil {
			p.Year = y
		}
	}
	if p.Title == "" {
		p.Title = e.Field("title")
	}
}

// fillFromRecord copies metadata the candidate lacks from a fetched record.
func fillFromRecord(p *reference.PaperRecord, rec reference.PaperRecord) {
	if len(p.Authors) == 0 {
		p.Authors = rec.Authors
	}
	if p.Year == 0 {
		p.Year = rec.Year
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = rec.Title
	}
	if p.Venue == "" {
		p.Venue = rec.Venue
	}
}

func yearString(y int) string {
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func authorList(authors []reference.Author) string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.DisplayName()
	}
	return strings.Join(names, "; ")
}

func appendUnique(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}
