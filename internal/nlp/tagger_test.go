package nlp

import (
	"testing"

	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNounPhrases(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []prose.Token
		expected []string
	}{
		{
			name: "single nouns split by preposition",
			tokens: []prose.Token{
				{Text: "Meeting", Tag: "NN"},
				{Text: "about", Tag: "IN"},
				{Text: "budget", Tag: "NN"},
			},
			expected: []string{"Meeting", "budget"},
		},
		{
			name: "adjective joins following noun",
			tokens: []prose.Token{
				{Text: "quarterly", Tag: "JJ"},
				{Text: "budget", Tag: "NN"},
				{Text: "review", Tag: "NN"},
			},
			expected: []string{"quarterly budget review"},
		},
		{
			name: "trailing adjective dropped",
			tokens: []prose.Token{
				{Text: "plan", Tag: "NN"},
				{Text: "is", Tag: "VBZ"},
				{Text: "urgent", Tag: "JJ"},
			},
			expected: []string{"plan"},
		},
		{
			name: "adjective after noun starts new phrase",
			tokens: []prose.Token{
				{Text: "design", Tag: "NN"},
				{Text: "final", Tag: "JJ"},
				{Text: "draft", Tag: "NN"},
			},
			expected: []string{"design", "final draft"},
		},
		{
			name:     "no nouns",
			tokens:   []prose.Token{{Text: "hello", Tag: "UH"}},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nounPhrases(tt.tokens))
		})
	}
}

func TestProperNounRuns(t *testing.T) {
	tokens := []prose.Token{
		{Text: "with", Tag: "IN"},
		{Text: "Sarah", Tag: "NNP"},
		{Text: "Connor", Tag: "NNP"},
		{Text: "at", Tag: "IN"},
		{Text: "Acme", Tag: "NNP"},
	}

	assert.Equal(t, []string{"Sarah Connor", "Acme"}, properNounRuns(tokens))
}

func TestProseTagger(t *testing.T) {
	tagger := NewProseTagger()

	t.Run("empty text", func(t *testing.T) {
		tags, err := tagger.Tag("  ")
		require.NoError(t, err)
		assert.Empty(t, tags.Topics)
		assert.Empty(t, tags.Nouns)
	})

	t.Run("finds the subject noun", func(t *testing.T) {
		tags, err := tagger.Tag("Meeting with Sarah tomorrow 3pm about budget")
		require.NoError(t, err)

		assert.Contains(t, tags.Nouns, "budget")
	})
}
