package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matsen/autocite/internal/bibtex"
	"github.com/matsen/autocite/internal/crossref"
	"github.com/matsen/autocite/internal/pipeline"
	"github.com/matsen/autocite/internal/s2"
)

// TitleMaxLen truncates titles in human output.
const TitleMaxLen = 70

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// emit writes v as JSON, or calls human when --human is set.
func emit(v any, human func()) {
	if humanOutput {
		human()
		return
	}
	if err := outputJSON(v); err != nil {
		exitWithError(ExitError, "encoding output: %v", err)
	}
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps an error to the exit code reported for it.
func exitCodeFor(err error) int {
	switch {
	case s2.IsAuthError(err):
		return ExitAuthError
	case s2.IsNotFound(err), errors.Is(err, crossref.ErrNotFound),
		errors.Is(err, pipeline.ErrNoDOI), errors.Is(err, pipeline.ErrNoRecord):
		return ExitNotFound
	case s2.IsRateLimited(err), errors.Is(err, crossref.ErrRateLimited),
		errors.Is(err, s2.ErrNetworkError), errors.Is(err, s2.ErrInvalidResponse),
		errors.Is(err, crossref.ErrInvalidResponse):
		return ExitAPIError
	case errors.Is(err, bibtex.ErrKeySpaceExhausted), errors.Is(err, bibtex.ErrEmptyKey):
		return ExitDataError
	}
	var apiErr *s2.APIError
	var statusErr *crossref.StatusError
	if errors.As(err, &apiErr) || errors.As(err, &statusErr) {
		return ExitAPIError
	}
	return ExitError
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Path   string `json:"path"`
}
