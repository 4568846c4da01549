package llm

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/config"
	"github.com/clarifaisql/engine/pkg/retry"
)

// OpenAIClient calls any OpenAI-compatible chat-completions endpoint
// (api.openai.com, vLLM, Ollama's compatibility layer, proxies).
type OpenAIClient struct {
	client   *openai.Client
	model    string
	retryCfg *retry.Config
	logger   *zap.Logger
}

var _ QueryGenerator = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI-compatible QueryGenerator.
func NewOpenAIClient(cfg *config.LLMConfig, logger *zap.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.Key())
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = newHTTPClient(cfg)

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		retryCfg: retryConfig(cfg),
		logger:   logger.Named("openai"),
	}
}

// GenerateQuery sends the prompt and parses the strict-JSON result.
func (c *OpenAIClient) GenerateQuery(ctx context.Context, prompt string) (*QueryGeneration, error) {
	start := time.Now()

	raw, err := retry.DoWithResult(ctx, c.retryCfg, func() (string, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		c.logger.Error("Completion request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("Completion request finished",
		zap.Int("prompt_len", len(prompt)),
		zap.Duration("elapsed", time.Since(start)))

	return parseGeneration(raw)
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		MaxTokens:   2048,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		statusCode := 0
		if apiErr, ok := err.(*openai.APIError); ok {
			statusCode = apiErr.HTTPStatusCode
		}
		return "", transportError("request failed", statusCode, err)
	}

	if len(resp.Choices) == 0 {
		return "", NewError(ErrorTypeMalformedResponse, "provider returned no choices", false, nil)
	}

	return resp.Choices[0].Message.Content, nil
}
