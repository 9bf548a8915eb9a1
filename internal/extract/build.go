package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/claude"
	"github.com/omriShneor/meeting_agent/internal/gemini"
	"github.com/omriShneor/meeting_agent/internal/nlp"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

// Options selects and configures an extractor variant
type Options struct {
	Mode     string
	Provider string // "gemini" or "claude", for ModeLLM

	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32

	AnthropicAPIKey   string
	ClaudeModel       string
	ClaudeTemperature float64
}

// Build returns the configured extractor and a func that releases its resources
func Build(ctx context.Context, opts Options, dates *timeutil.Parser, logger *zap.Logger) (Extractor, func() error, error) {
	noop := func() error { return nil }

	mode, err := ParseMode(opts.Mode)
	if err != nil {
		return nil, noop, err
	}

	if mode == ModeRules {
		return NewRuleBased(dates, nlp.NewProseTagger(), logger), noop, nil
	}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "gemini":
		client, err := gemini.NewClient(ctx, opts.GeminiAPIKey, opts.GeminiModel, opts.GeminiTemperature)
		if err != nil {
			return nil, noop, err
		}
		if logger != nil {
			logger.Info("using gemini extractor", zap.String("model", client.Model()))
		}
		return NewLLM(client, logger), client.Close, nil
	case "claude", "anthropic":
		client := claude.NewClient(opts.AnthropicAPIKey, opts.ClaudeModel, opts.ClaudeTemperature)
		if !client.IsConfigured() {
			return nil, noop, fmt.Errorf("ANTHROPIC_API_KEY is required for the claude provider")
		}
		return NewLLM(client, logger), noop, nil
	}

	return nil, noop, fmt.Errorf("unknown LLM provider %q (expected gemini or claude)", opts.Provider)
}
