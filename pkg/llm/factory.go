package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/config"
)

// NewQueryGenerator builds the QueryGenerator for the configured provider.
func NewQueryGenerator(cfg *config.LLMConfig, logger *zap.Logger) (QueryGenerator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiClient(cfg, logger), nil
	case "openai":
		return NewOpenAIClient(cfg, logger), nil
	case "anthropic":
		return NewAnthropicClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
