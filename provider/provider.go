package provider

import (
	"context"
	"fmt"

	"github.com/rapidbounce/postfactory/config"
	openai_provider "github.com/rapidbounce/postfactory/provider/openai"
)

// LLMProvider generates text completions for the copywriting stage.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewLLMProvider creates a provider based on configuration.
func NewLLMProvider(cfg config.LLMConfig) (LLMProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider type: %s", cfg.Provider)
	}
}
