package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexcodex/nlcommand/framework"
	"github.com/lexcodex/nlcommand/internal/config"
)

// New builds the language model selected by cfg.
func New(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (framework.LanguageModel, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		client := NewClient(cfg.Endpoint, cfg.Name)
		client.SetTimeout(cfg.Timeout)
		client.SetDebugLogging(cfg.Debug)
		client.Logger = logger
		return client, nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Name)
	}
	return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
}

// Options returns the per-call options implied by cfg.
func Options(cfg config.ModelConfig) framework.LLMOptions {
	return framework.LLMOptions{
		Model:       cfg.Name,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		JSON:        true,
	}
}
