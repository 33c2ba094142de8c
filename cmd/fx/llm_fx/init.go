package llm_fx

import (
	"context"

	"go.uber.org/fx"

	"tabi/internal/config"
	"tabi/pkg/llm"
)

var Module = fx.Provide(
	provideChatClient,
	provideEmbedder,
)

func apiKey(cfg config.Config, provider string) string {
	switch provider {
	case "openai":
		return cfg.OpenAIKey
	case "anthropic":
		return cfg.AnthropicKey
	case "gemini":
		return cfg.GeminiKey
	}
	return ""
}

func provideChatClient(cfg config.Config) (llm.Client, error) {
	return llm.New(context.Background(), llm.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   apiKey(cfg, cfg.LLMProvider),
	})
}

func provideEmbedder(cfg config.Config) (llm.Embedder, error) {
	return llm.NewEmbedder(context.Background(), llm.Config{
		Provider: cfg.EmbeddingProvider,
		Model:    cfg.EmbeddingModel,
		BaseURL:  cfg.EmbeddingBaseURL,
		APIKey:   apiKey(cfg, cfg.EmbeddingProvider),
	})
}
