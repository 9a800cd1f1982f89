package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/pdf"
	"github.com/matsen/autocite/internal/reference"
)

// ErrNoDOI is returned when neither the PDF text nor a title lookup yields
// a DOI.
var ErrNoDOI = errors.New("no DOI found in PDF")

// ErrNoRecord is returned when the DOI has no BibTeX record.
var ErrNoRecord = errors.New("no BibTeX record for DOI")

// PDFResult is the outcome of AddPDF.
type PDFResult struct {
	PDF         *pdf.Metadata `json:"pdf"`
	DOI         string        `json:"doi"`
	Key         string        `json:"key"`
	Added       bool          `json:"added"`
	ExistingKey string        `json:"existing_key,omitempty"`
	BibPath     string        `json:"bib_path"`
}

// AddPDF adds the work described by a local PDF to a bibliography. The DOI is
// taken from the PDF text, or resolved from the guessed title. A work already
// present (by DOI) is not added again.
func AddPDF(ctx context.Context, pdfPath, bibPath string, resolver Resolver) (*PDFResult, error) {
	meta, err := pdf.Extract(pdfPath)
	if err != nil {
		return nil, err
	}
	res := &PDFResult{PDF: meta, DOI: meta.DOI, BibPath: bibPath}

	if res.DOI == "" && meta.Title != "" {
		doi, err := resolver.ResolveDOI(ctx, meta.Title, 0)
		if err != nil {
			return nil, fmt.Errorf("resolving title %q: %w", meta.Title, err)
		}
		res.DOI = doi
	}
	if res.DOI == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoDOI, pdfPath)
	}

	if _, err := bibtex.EnsureFile(bibPath, BibHeader); err != nil {
		return nil, err
	}
	existing, err := bibtex.ReadFile(bibPath)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	idx := bibtex.ParseIndex(existing)
	if key, ok := idx.KeyForDOI(res.DOI); ok {
		res.Key, res.ExistingKey = key, key
		return res, nil
	}

	raw, err := resolver.BibTeX(ctx, res.DOI)
	if err != nil {
		return nil, fmt.Errorf("fetching BibTeX for %s: %w", res.DOI, err)
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, res.DOI)
	}

	base, ok := bibtex.RecordKey(raw)
	if !ok {
		base = bibtex.KeyForRecord(reference.PaperRecord{Title: meta.Title})
	}
	merged, err := bibtex.Merge(existing, []bibtex.BibliographyEntry{{
		Key: base,
		DOI: res.DOI,
		Raw: bibtex.Rekey(raw, base),
	}})
	if err != nil {
		return nil, err
	}
	if err := bibtex.WriteAtomic(bibPath, merged.Text); err != nil {
		return nil, fmt.Errorf("writing %s: %w", bibPath, err)
	}

	res.Added = len(merged.Added) == 1
	if res.Added {
		res.Key = merged.Added[0].Key
	}
	return res, nil
}
