package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Available at 10.1038/nature12373 online", "10.1038/nature12373"},
		{"trailing punctuation", "(doi: 10.1126/science.aaa1234).", "10.1126/science.aaa1234"},
		{"url form", "https://doi.org/10.1093/molbev/msab123\nnext", "10.1093/molbev/msab123"},
		{"short registrant rejected", "10.12/abc", ""},
		{"none", "no identifiers here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindDOI(tt.text))
		})
	}
}

func TestGuessTitle(t *testing.T) {
	text := "Journal of Things, Volume 3\nshort\nPhylogenetic inference with neural networks\nAuthors"
	assert.Equal(t, "Phylogenetic inference with neural networks", GuessTitle(text))
	assert.Empty(t, GuessTitle("tiny\nlines"))
}

func TestExtractNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	_, err := Extract(path)
	assert.Error(t, err)
}
