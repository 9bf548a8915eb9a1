package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/nlp"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

const maxPersonTokens = 4

var (
	// "with" plus its equivalents in a few languages users write in
	personRe = regexp.MustCompile(`(?i)\b(?:with|con|avec|mit)\s+([\p{L}][\p{L}'.-]*(?:\s+[\p{L}][\p{L}'.-]*)*)`)
	wordRe   = regexp.MustCompile(`[\p{L}][\p{L}'.-]*`)
	tokenRe  = regexp.MustCompile(`[\p{L}]+|\d+`)
)

var prepositions = []string{"with", "con", "avec", "mit"}

var calendarKeywords = []string{
	"meeting", "meetings", "meet", "schedule", "scheduled", "appointment", "appointments",
	"calendar", "event", "invite",
}

var dateWords = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"mon", "tue", "tues", "wed", "thu", "thur", "thurs", "fri", "sat", "sun",
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
	"today", "tomorrow", "tonight", "yesterday", "morning", "afternoon", "evening",
	"noon", "midnight", "week", "weekend", "month", "next", "am", "pm",
}

// greetings and small talk that a tagger reports as nouns ("hello", "thanks")
var fillerWords = []string{
	"hello", "hi", "hey", "hiya", "howdy", "greetings", "yo", "sup",
	"thanks", "thank", "thx", "please", "pls", "cheers", "bye", "goodbye",
	"ok", "okay", "yes", "no", "sure", "hmm", "um", "uh",
	"there", "i", "me", "you", "we", "us", "it", "something", "anything",
}

// words that end a person phrase ("with Sarah about budget")
var personBoundaryWords = []string{
	"about", "on", "at", "for", "to", "in", "regarding", "re", "from", "by", "and",
	"this", "that", "tomorrow", "today", "tonight", "next",
}

// articles end a person phrase only after a name ("with Dan the intern"),
// never before one ("with the design team")
var articles = []string{"the", "a", "an"}

// RuleBased extracts slots with a date parser, a regex for the attendee and a
// part-of-speech tagger for the title
type RuleBased struct {
	dates  *timeutil.Parser
	tagger nlp.Tagger
	logger *zap.Logger

	titleStop  map[string]bool
	personStop map[string]bool
	articles   map[string]bool
}

// NewRuleBased creates a rule-based extractor
func NewRuleBased(dates *timeutil.Parser, tagger nlp.Tagger, logger *zap.Logger) *RuleBased {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleBased{
		dates:      dates,
		tagger:     tagger,
		logger:     logger,
		titleStop:  wordSet(calendarKeywords, dateWords, prepositions, fillerWords),
		personStop: wordSet(calendarKeywords, dateWords, prepositions, personBoundaryWords),
		articles:   wordSet(articles),
	}
}

// Extract implements Extractor. It never fails hard; misses leave fields nil.
func (r *RuleBased) Extract(_ context.Context, text string, now time.Time) Result {
	res := Result{Success: true}

	var dateSpan [2]int
	dateSpan[0], dateSpan[1] = -1, -1
	if m, ok := r.dates.Find(text, now); ok {
		matched := m.MatchedText
		t := m.Time
		res.DateTimeText = &matched
		res.ResolvedDateTime = &t
		dateSpan = [2]int{m.Index, m.Index + len(m.MatchedText)}
	}

	res.Person = r.extractPerson(text, dateSpan)
	res.Title = r.extractTitle(text, res.Person, res.DateTimeText)

	r.logger.Debug("rule-based extraction",
		zap.String("text", text),
		zap.Stringp("title", res.Title),
		zap.Stringp("person", res.Person),
		zap.Stringp("datetime", res.DateTimeText),
	)
	return res
}

// extractPerson returns the words following "with", cut at the first boundary
// word or at the start of the date phrase. Case is kept as typed.
func (r *RuleBased) extractPerson(text string, dateSpan [2]int) *string {
	loc := personRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}

	phraseStart, phraseEnd := loc[2], loc[3]
	phrase := text[phraseStart:phraseEnd]

	end := -1
	count, named := 0, 0
	for _, w := range wordRe.FindAllStringIndex(phrase, -1) {
		absStart := phraseStart + w[0]
		if dateSpan[0] >= 0 && absStart >= dateSpan[0] && absStart < dateSpan[1] {
			break
		}
		word := strings.ToLower(strings.Trim(phrase[w[0]:w[1]], "'.-"))
		if word == "" || r.personStop[word] || (count > 0 && r.articles[word]) {
			break
		}
		end = w[0] + len(strings.TrimRight(phrase[w[0]:w[1]], "'.-"))
		count++
		if !r.articles[word] {
			named++
		}
		if count == maxPersonTokens {
			break
		}
	}
	if end < 0 || named == 0 {
		return nil
	}

	return strPtr(phrase[:end])
}

// extractTitle picks the first topic, or else the longest noun phrase, with no stoplisted word
func (r *RuleBased) extractTitle(text string, person, dateText *string) *string {
	tags, err := r.tagger.Tag(text)
	if err != nil {
		r.logger.Warn("tagging failed, no title guessed", zap.Error(err))
		return nil
	}

	stop := make(map[string]bool, len(r.titleStop))
	for w := range r.titleStop {
		stop[w] = true
	}
	if person != nil {
		for _, w := range tokenRe.FindAllString(strings.ToLower(*person), -1) {
			stop[w] = true
		}
	}
	if dateText != nil {
		for _, w := range tokenRe.FindAllString(strings.ToLower(*dateText), -1) {
			stop[w] = true
		}
	}

	allowed := func(phrase string) bool {
		words := tokenRe.FindAllString(strings.ToLower(phrase), -1)
		if len(words) == 0 {
			return false
		}
		for _, w := range words {
			if stop[w] {
				return false
			}
		}
		return true
	}

	for _, topic := range tags.Topics {
		if allowed(topic) {
			return strPtr(topic)
		}
	}

	var best string
	for _, noun := range tags.Nouns {
		if allowed(noun) && len(noun) > len(best) {
			best = noun
		}
	}
	return strPtr(best)
}

func wordSet(lists ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, list := range lists {
		for _, w := range list {
			set[w] = true
		}
	}
	return set
}
