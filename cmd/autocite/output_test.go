package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/crossref"
	"github.com/matsen/autocite/internal/pipeline"
	"github.com/matsen/autocite/internal/s2"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("search: %w", s2.ErrAuthError), ExitAuthError},
		{fmt.Errorf("search: %w", s2.ErrNotFound), ExitNotFound},
		{fmt.Errorf("pdf: %w", pipeline.ErrNoDOI), ExitNotFound},
		{s2.ErrRateLimited, ExitAPIError},
		{&s2.APIError{StatusCode: 500}, ExitAPIError},
		{fmt.Errorf("bib: %w", &crossref.StatusError{StatusCode: 502}), ExitAPIError},
		{fmt.Errorf("keys: %w", bibtex.ErrKeySpaceExhausted), ExitDataError},
		{fmt.Errorf("something else"), ExitError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCodeFor(tt.err), tt.err.Error())
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
