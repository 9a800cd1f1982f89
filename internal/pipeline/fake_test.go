package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/matsen/autocite/internal/reference"
)

// fakeResolver serves DOIs by exact title, and BibTeX and metadata by DOI.
type fakeResolver struct {
	mu       sync.Mutex
	dois     map[string]string
	bibs     map[string]string
	records  map[string]*reference.PaperRecord
	failBib  map[string]bool
	bibCalls []string
}

func (f *fakeResolver) ResolveDOI(_ context.Context, title string, _ int) (string, error) {
	return f.dois[title], nil
}

func (f *fakeResolver) BibTeX(_ context.Context, doi string) (string, error) {
	f.mu.Lock()
	f.bibCalls = append(f.bibCalls, doi)
	f.mu.Unlock()
	if f.failBib[doi] {
		return "", errors.New("upstream unavailable")
	}
	return f.bibs[doi], nil
}

func (f *fakeResolver) Record(_ context.Context, doi string) (*reference.PaperRecord, error) {
	return f.records[doi], nil
}
