package llm

import (
	"context"
	"fmt"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/shared"
)

// Prompt is a system/user message pair sent to a text generation service.
type Prompt struct {
	System string
	User   string
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
// Implementations make exactly one remote call per invocation and never retry.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt Prompt) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewTextGenerator builds the generator selected by cfg.LLMProvider.
// The returned close function must be called when the generator is no longer needed.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, func() error, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case config.ProviderGroq:
		return NewGroqClient(cfg), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
