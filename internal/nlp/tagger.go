package nlp

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Tags holds the candidate phrases found in a piece of text, in order of appearance
type Tags struct {
	// Topics are named things: people, places, organizations and proper noun runs
	Topics []string
	// Nouns are noun phrases (optional adjectives followed by one or more nouns)
	Nouns []string
}

// Tagger finds topic and noun phrases in free text
type Tagger interface {
	Tag(text string) (Tags, error)
}

// ProseTagger tags text with prose's part-of-speech tagger and entity recognizer
type ProseTagger struct{}

// NewProseTagger creates a tagger backed by prose's bundled English model
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag implements Tagger
func (p *ProseTagger) Tag(text string) (Tags, error) {
	if strings.TrimSpace(text) == "" {
		return Tags{}, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return Tags{}, fmt.Errorf("failed to tag text: %w", err)
	}

	var tags Tags
	seen := make(map[string]bool)
	addTopic := func(s string) {
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			return
		}
		seen[key] = true
		tags.Topics = append(tags.Topics, s)
	}

	for _, ent := range doc.Entities() {
		addTopic(ent.Text)
	}

	tokens := doc.Tokens()
	for _, run := range properNounRuns(tokens) {
		addTopic(run)
	}
	tags.Nouns = nounPhrases(tokens)

	return tags, nil
}

func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isProperNoun(tag string) bool {
	return tag == "NNP" || tag == "NNPS"
}

func isAdjective(tag string) bool {
	return strings.HasPrefix(tag, "JJ")
}

func properNounRuns(tokens []prose.Token) []string {
	var runs []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, strings.Join(cur, " "))
			cur = nil
		}
	}

	for _, tok := range tokens {
		if isProperNoun(tok.Tag) {
			cur = append(cur, tok.Text)
			continue
		}
		flush()
	}
	flush()
	return runs
}

// nounPhrases returns maximal runs of JJ* NN+ tokens
func nounPhrases(tokens []prose.Token) []string {
	var phrases []string
	var cur []prose.Token
	flush := func() {
		// drop trailing adjectives; a phrase must end in a noun
		end := len(cur)
		for end > 0 && !isNoun(cur[end-1].Tag) {
			end--
		}
		if end > 0 {
			words := make([]string, 0, end)
			for _, tok := range cur[:end] {
				words = append(words, tok.Text)
			}
			phrases = append(phrases, strings.Join(words, " "))
		}
		cur = nil
	}

	for _, tok := range tokens {
		switch {
		case isNoun(tok.Tag):
			cur = append(cur, tok)
		case isAdjective(tok.Tag):
			// an adjective after a noun starts a new phrase
			if len(cur) > 0 && isNoun(cur[len(cur)-1].Tag) {
				flush()
			}
			cur = append(cur, tok)
		default:
			flush()
		}
	}
	flush()
	return phrases
}
