package extract

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Result is a best-effort guess at the meeting slots in one message.
// Nil fields were not found; Success is false only for hard failures.
type Result struct {
	Title        *string
	Person       *string
	DateTimeText *string
	// ResolvedDateTime is set when the extractor already parsed DateTimeText
	ResolvedDateTime *time.Time
	Success          bool
	ErrorMessage     string
	// RawReply keeps the model output for diagnostics
	RawReply string
	// Err is the underlying failure when the model could not be reached
	Err error
}

// Extractor guesses slot values from free text.
// now is the reference time for relative dates.
type Extractor interface {
	Extract(ctx context.Context, text string, now time.Time) Result
}

// Mode selects the extractor variant
type Mode string

const (
	ModeRules Mode = "rules"
	ModeLLM   Mode = "llm"
)

// ParseMode maps a config value to a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRules:
		return ModeRules, nil
	case ModeLLM:
		return ModeLLM, nil
	}
	return "", fmt.Errorf("unknown extractor mode %q (expected %q or %q)", s, ModeRules, ModeLLM)
}

func failed(msg, raw string) Result {
	return Result{Success: false, ErrorMessage: msg, RawReply: raw}
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
