// Package assist implements the optional AI features: log summaries, tag
// recommendations and sentiment analysis. Each feature sends one chat
// prompt through a Completer and parses the reply.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/config"
)

var (
	ErrNoAPIKey    = errors.New("no API key configured")
	ErrDisabled    = errors.New("feature is disabled in settings")
	ErrNoLogs      = errors.New("no logs to summarize")
	ErrBadResponse = errors.New("unexpected response from model")
)

// Request is one system + user prompt pair. JSON asks the provider for a
// single JSON object as the reply.
type Request struct {
	System string
	User   string
	JSON   bool
}

// Completer sends a prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewCompleter builds the client for cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.AI, logger *zap.Logger) (Completer, error) {
	key := cfg.Key()
	if key == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrNoAPIKey)
	}
	switch cfg.Provider {
	case "gemini":
		model := cfg.Model
		if model == "" || strings.HasPrefix(model, "gpt") {
			model = defaultGeminiModel
		}
		return NewGeminiClient(ctx, key, model, logger)
	case "openai", "":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  key,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// extractJSON strips a markdown code fence some models wrap JSON replies in.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
