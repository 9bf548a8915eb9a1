package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Completer sends one prompt to a language model and returns its text reply
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const llmPromptTemplate = `Extract meeting information (title, datetime expression, attendee name) from the following text.
Respond ONLY with a valid JSON object containing the keys "title", "datetime", and "name".
If a value is not found, use null for that key.

Text: %q

JSON Output:`

var fenceRe = regexp.MustCompile("^```(?:json)?\\s*|\\s*```$")

// llmFields is the JSON object the model is asked for
type llmFields struct {
	Title    *string `json:"title"`
	DateTime *string `json:"datetime"`
	Name     *string `json:"name"`
}

// LLM extracts slots by asking a language model for a JSON object
type LLM struct {
	completer Completer
	logger    *zap.Logger
}

// NewLLM creates an LLM-backed extractor
func NewLLM(completer Completer, logger *zap.Logger) *LLM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLM{completer: completer, logger: logger}
}

// BuildPrompt renders the extraction instruction for text
func BuildPrompt(text string) string {
	return fmt.Sprintf(llmPromptTemplate, text)
}

// Extract implements Extractor. The date/time is returned as the model's raw
// expression and resolved later by the caller.
func (l *LLM) Extract(ctx context.Context, text string, _ time.Time) Result {
	l.logger.Debug("requesting LLM extraction", zap.String("text", text))

	raw, err := l.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		l.logger.Error("LLM extraction call failed", zap.Error(err))
		res := failed(fmt.Sprintf("AI service error: %v", err), "")
		res.Err = err
		return res
	}

	fields, err := parseLLMReply(raw)
	if err != nil {
		l.logger.Warn("could not extract JSON from LLM response", zap.String("raw_reply", raw))
		return failed("could not extract JSON from LLM response", raw)
	}

	res := Result{Success: true, RawReply: raw}
	if fields.Title != nil {
		res.Title = strPtr(*fields.Title)
	}
	if fields.Name != nil {
		res.Person = strPtr(*fields.Name)
	}
	if fields.DateTime != nil {
		res.DateTimeText = strPtr(*fields.DateTime)
	}
	return res
}

// parseLLMReply decodes the model reply, salvaging the first {...} block when
// the reply is not bare JSON
func parseLLMReply(raw string) (*llmFields, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(strings.TrimSpace(raw), ""))

	var fields llmFields
	err := json.Unmarshal([]byte(cleaned), &fields)
	if err == nil {
		return &fields, nil
	}

	obj := ExtractJSON(cleaned)
	if obj == "" {
		return nil, fmt.Errorf("no JSON object in reply: %w", err)
	}

	fields = llmFields{}
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse salvaged JSON: %w", err)
	}
	return &fields, nil
}
