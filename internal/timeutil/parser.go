package timeutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	pastMarkerRe   = regexp.MustCompile(`\b(yesterday|ago|last|past|earlier|today|tonight)\b`)
	explicitDateRe = regexp.MustCompile(`\d{1,4}[/.-]\d{1,2}|\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\b`)
	weekdayRe      = regexp.MustCompile(`\b(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(day)?\b`)

	// a time of day somewhere in a matched span
	timeHintRe = regexp.MustCompile(`(?i)\d:\d{2}|\d\s*[ap]\.?m\b|o'?clock|\b(noon|midnight|morning|afternoon|evening|tonight|night|now|hours?|hrs?|minutes?|mins?)\b`)

	// "at 9", "at 2:30", "9 o'clock" without am/pm, which the English rules skip
	bareHourAfterRe  = regexp.MustCompile(`(?i)^\s*(at\s+)?(\d{1,2})(?::(\d{2}))?(\s*o'?clock)?(\s*[ap]\.?m\.?)?(?:[^\w:/\-.]|\.(?:\D|$)|$)`)
	bareHourBeforeRe = regexp.MustCompile(`(?i)(?:^|\s)(at\s+(\d{1,2})(?::(\d{2}))?(?:\s*o'?clock)?)\s+$`)
	bareHourAloneRe  = regexp.MustCompile(`(?i)\b(at\s+(\d{1,2})(?::(\d{2}))?(?:\s*o'?clock)?)(?:[^\w:/\-.]|\.(?:\D|$)|$)`)
)

// DefaultHour is used when a phrase names a day but no time of day
const DefaultHour = 12

// Match is a date/time span found in free text
type Match struct {
	Index       int
	MatchedText string
	Time        time.Time
}

// Parser finds natural-language date/time phrases ("tomorrow 3pm", "next friday at noon").
type Parser struct {
	w           *when.Parser
	forwardDate bool
}

// NewParser creates a parser with English and common rules.
// With forwardDate set, a weekday or bare time that resolved to the past is
// moved to its next occurrence.
func NewParser(forwardDate bool) *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &Parser{w: w, forwardDate: forwardDate}
}

// Find returns the first date/time span in text, resolved relative to ref.
func (p *Parser) Find(text string, ref time.Time) (*Match, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	r, err := p.w.Parse(text, ref)
	if err != nil || r == nil {
		return findBareHour(text, ref, p.forwardDate)
	}

	m := &Match{Index: r.Index, MatchedText: r.Text, Time: r.Time}
	if !timeHintRe.MatchString(m.MatchedText) {
		if !attachBareHour(text, m) {
			m.Time = atClock(m.Time, DefaultHour, 0)
		}
	}

	if p.forwardDate {
		m.Time = rollForward(m.MatchedText, m.Time, ref)
	}
	return m, true
}

// attachBareHour widens m over an adjacent "at H[:MM]" or "H o'clock" and
// sets its time of day. It reports whether an hour was found.
func attachBareHour(text string, m *Match) bool {
	end := m.Index + len(m.MatchedText)
	if end > len(text) {
		return false
	}

	if loc := bareHourAfterRe.FindStringSubmatchIndex(text[end:]); loc != nil {
		hasAt := loc[2] >= 0
		hasOClock := loc[8] >= 0
		hasMeridiem := loc[10] >= 0
		if (hasAt || hasOClock) && !hasMeridiem {
			hour, minute, ok := bareClock(text[end:], loc[4], loc[5], loc[6], loc[7])
			if ok {
				spanEnd := end + loc[5]
				if hasOClock {
					spanEnd = end + loc[9]
				} else if loc[6] >= 0 {
					spanEnd = end + loc[7]
				}
				m.MatchedText = text[m.Index:spanEnd]
				m.Time = atClock(m.Time, hour, minute)
				return true
			}
		}
	}

	if loc := bareHourBeforeRe.FindStringSubmatchIndex(text[:m.Index]); loc != nil {
		hour, minute, ok := bareClock(text[:m.Index], loc[4], loc[5], loc[6], loc[7])
		if ok {
			start := loc[2]
			m.MatchedText = text[start:end]
			m.Index = start
			m.Time = atClock(m.Time, hour, minute)
			return true
		}
	}

	return false
}

// findBareHour handles a lone "at H" with no day, meaning today (or the next
// day once rolled forward).
func findBareHour(text string, ref time.Time, forwardDate bool) (*Match, bool) {
	loc := bareHourAloneRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}
	hour, minute, ok := bareClock(text, loc[4], loc[5], loc[6], loc[7])
	if !ok {
		return nil, false
	}

	m := &Match{
		Index:       loc[2],
		MatchedText: text[loc[2]:loc[3]],
		Time:        atClock(ref, hour, minute),
	}
	if forwardDate {
		m.Time = rollForward(m.MatchedText, m.Time, ref)
	}
	return m, true
}

// bareClock reads an hour without am/pm. 1 to 7 are taken as afternoon,
// since nobody books a meeting at 3 in the morning by saying "at 3".
func bareClock(s string, hourStart, hourEnd, minStart, minEnd int) (int, int, bool) {
	hour, err := strconv.Atoi(s[hourStart:hourEnd])
	if err != nil || hour > 23 {
		return 0, 0, false
	}
	minute := 0
	if minStart >= 0 {
		minute, err = strconv.Atoi(s[minStart:minEnd])
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}
	if hour >= 1 && hour <= 7 {
		hour += 12
	}
	return hour, minute, true
}

func atClock(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// Parse resolves value to a single instant. Structured layouts (as returned by
// LLMs or by FormatForDisplay) are tried before natural language.
func (p *Parser) Parse(value string, ref time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := ParseDateTime(value, ref.Location()); err == nil {
		return t, true
	}

	m, ok := p.Find(value, ref)
	if !ok {
		return time.Time{}, false
	}
	return m.Time, true
}

func rollForward(matched string, t, ref time.Time) time.Time {
	if !t.Before(ref) {
		return t
	}

	lower := strings.ToLower(matched)
	if pastMarkerRe.MatchString(lower) || explicitDateRe.MatchString(lower) {
		return t
	}

	if weekdayRe.MatchString(lower) {
		for t.Before(ref) {
			t = t.AddDate(0, 0, 7)
		}
		return t
	}

	if ref.Sub(t) < 24*time.Hour {
		return t.AddDate(0, 0, 1)
	}
	return t
}
