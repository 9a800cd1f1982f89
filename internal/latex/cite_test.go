package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCites(t *testing.T) {
	text := `As shown \cite{A, B} and \citep{C,,C } and \citet {D}.`
	spans := ExtractCites(text)

	require.Len(t, spans, 3)

	assert.Equal(t, "cite", spans[0].Command)
	assert.Equal(t, []string{"A", "B"}, spans[0].Keys)
	assert.Equal(t, `\cite{A, B}`, text[spans[0].Start:spans[0].End])

	// Empty keys dropped, duplicates preserved
	assert.Equal(t, "citep", spans[1].Command)
	assert.Equal(t, []string{"C", "C"}, spans[1].Keys)

	assert.Equal(t, "citet", spans[2].Command)
	assert.Equal(t, []string{"D"}, spans[2].Keys)
	assert.Equal(t, `\citet {D}`, text[spans[2].Start:spans[2].End])

	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].End, spans[i].Start)
	}
}

func TestExtractCites_NoMatch(t *testing.T) {
	assert.Empty(t, ExtractCites(`No citations \ref{fig:1} here.`))
	assert.Empty(t, ExtractCites(""))
}

func TestExtractCites_EmptyList(t *testing.T) {
	spans := ExtractCites(`Empty \cite{} list.`)
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].Keys)
}

func TestHasCite(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{`Plain sentence.`, false},
		{`One \cite{a}.`, true},
		{`Natbib \citealp{a,b}.`, true},
		{`Reference \ref{x} only.`, false},
		{`Unclosed \cite{a`, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, HasCite(tt.text))
		})
	}
}

func TestNormalizeKeys(t *testing.T) {
	got := NormalizeKeys([]string{" b", "a", "", "b", "A", "  "})
	assert.Equal(t, []string{"b", "a", "A"}, got)
}

func TestCiteKeys(t *testing.T) {
	spans := ExtractCites(`\cite{x,y} and \citep{y,z}`)
	assert.Equal(t, []string{"x", "y", "z"}, CiteKeys(spans))
}
