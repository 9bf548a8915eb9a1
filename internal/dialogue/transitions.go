package dialogue

import (
	"regexp"
	"strings"
	"time"

	"github.com/omriShneor/meeting_agent/internal/extract"
	"github.com/omriShneor/meeting_agent/internal/session"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

// The functions in this file only mutate the state they are given; the Engine
// owns locking, the store and collaborators.

type dateOutcome int

const (
	dateUnchanged dateOutcome = iota
	dateResolved
	dateUnparsed
	datePast
)

type confirmation int

const (
	confirmUnknown confirmation = iota
	confirmYes
	confirmNo
)

var (
	affirmativeRe = regexp.MustCompile(`(?i)\b(yes|yep|yeah|yup|ok|okay|sure|confirm|confirmed|correct|book it|go ahead|absolutely|please do)\b`)
	negativeRe    = regexp.MustCompile(`(?i)\b(no|nope|nah|cancel|stop|abort|nevermind|never mind|don't|do not|not)\b`)
)

// absorbDirected treats the whole text as the answer to the open single-slot question.
// It returns false when the stage is not waiting on a directed answer.
func absorbDirected(st *session.State, text string) bool {
	if !st.Stage.IsDirected() {
		return false
	}
	answer := strings.TrimSpace(text)

	switch st.Stage {
	case session.StageNeedTitle:
		st.Title = &answer
	case session.StageNeedPerson:
		st.Person = &answer
	default:
		st.RawDateTimeText = &answer
		st.ResolvedDateTime = nil
	}

	st.Stage = session.StageCollecting
	return true
}

// applyExtraction fills only the slots that are still empty
func applyExtraction(st *session.State, res extract.Result) {
	if st.Title == nil && res.Title != nil {
		v := *res.Title
		st.Title = &v
	}
	if st.Person == nil && res.Person != nil {
		v := *res.Person
		st.Person = &v
	}
	if st.RawDateTimeText == nil && res.DateTimeText != nil {
		v := *res.DateTimeText
		st.RawDateTimeText = &v
		st.ResolvedDateTime = nil
		if res.ResolvedDateTime != nil {
			t := *res.ResolvedDateTime
			st.ResolvedDateTime = &t
		}
	}
	if st.Stage == session.StageInit {
		st.Stage = session.StageCollecting
	}
}

// resolveDate parses a pending raw date phrase. Unparseable phrases are
// dropped, and so are past instants unless allowPast is set.
func resolveDate(st *session.State, dates *timeutil.Parser, now time.Time, allowPast bool) dateOutcome {
	outcome := dateUnchanged

	if st.RawDateTimeText != nil && st.ResolvedDateTime == nil {
		t, ok := dates.Parse(*st.RawDateTimeText, now)
		if !ok {
			st.RawDateTimeText = nil
			return dateUnparsed
		}
		st.ResolvedDateTime = &t
		outcome = dateResolved
	}

	if st.ResolvedDateTime != nil && !allowPast && st.ResolvedDateTime.Before(now) {
		st.RawDateTimeText = nil
		st.ResolvedDateTime = nil
		return datePast
	}

	return outcome
}

// nextPrompt sets the stage for the first missing slot (date/time, then person,
// then title) and returns the question to ask, or the confirmation summary.
func nextPrompt(st *session.State, outcome dateOutcome, loc *time.Location) string {
	switch {
	case st.IsComplete():
		st.Stage = session.StageConfirm
		return confirmationPrompt(st, loc)
	case st.ResolvedDateTime == nil:
		st.Stage = session.StageNeedDateTime
		switch outcome {
		case dateUnparsed:
			return msgDateUnparsed
		case datePast:
			return msgDatePast
		}
		return msgAskDateTime
	case st.Person == nil:
		st.Stage = session.StageNeedPerson
		return msgAskPerson
	default:
		st.Stage = session.StageNeedTitle
		return msgAskTitle
	}
}

// classifyConfirmation matches yes/no words anywhere in text, case-insensitively.
// Any negative word wins, so "no, don't book it" never reaches the calendar.
func classifyConfirmation(text string) confirmation {
	switch {
	case negativeRe.MatchString(text):
		return confirmNo
	case affirmativeRe.MatchString(text):
		return confirmYes
	}
	return confirmUnknown
}
