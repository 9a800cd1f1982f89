package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/config"
)

// BibHeader is written to a bibliography file created by a run.
const BibHeader = "% Auto-created by autocite\n\n"

var (
	bibliographyRegex   = regexp.MustCompile(`\\bibliography\{([^}]+)\}`)
	addBibResourceRegex = regexp.MustCompile(`\\addbibresource\{([^}]+)\}`)
)

// Document is a loaded manuscript and the bibliography it uses.
type Document struct {
	Path       string
	Text       string
	BibPath    string
	BibCreated bool
	Warnings   []string
}

// DetectBibPath finds the bibliography a manuscript refers to, relative to
// the manuscript's directory: the first name of the first \bibliography{}
// (with .bib appended when missing), else the first \addbibresource{}, else
// references.bib.
func DetectBibPath(text, inputPath string) (string, []string) {
	dir := filepath.Dir(inputPath)
	var warnings []string

	if m := bibliographyRegex.FindAllStringSubmatch(text, -1); len(m) > 0 {
		if len(m) > 1 {
			warnings = append(warnings, `Multiple \bibliography{} entries found; using first.`)
		}
		name := strings.TrimSpace(strings.Split(m[0][1], ",")[0])
		if !strings.HasSuffix(strings.ToLower(name), ".bib") {
			name += ".bib"
		}
		return filepath.Join(dir, name), warnings
	}

	if m := addBibResourceRegex.FindAllStringSubmatch(text, -1); len(m) > 0 {
		if len(m) > 1 {
			warnings = append(warnings, `Multiple \addbibresource{} entries found; using first.`)
		}
		return filepath.Join(dir, strings.TrimSpace(m[0][1])), warnings
	}

	return filepath.Join(dir, config.ReferencesFile), warnings
}

// Ingest reads the manuscript, resolves its bibliography (bibOverride wins
// when set) and creates the bibliography file when it does not exist.
func Ingest(inputPath, bibOverride string) (*Document, error) {
	if inputPath == "" {
		return nil, fmt.Errorf("input path is required")
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	doc := &Document{Path: inputPath, Text: string(data)}
	if bibOverride != "" {
		doc.BibPath = bibOverride
	} else {
		doc.BibPath, doc.Warnings = DetectBibPath(doc.Text, inputPath)
	}

	created, err := bibtex.EnsureFile(doc.BibPath, BibHeader)
	if err != nil {
		return nil, err
	}
	doc.BibCreated = created
	return doc, nil
}
