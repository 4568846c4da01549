package llm

import (
	"context"
	"errors"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/config"
	"github.com/clarifaisql/engine/pkg/retry"
)

// AnthropicClient calls the Anthropic Messages API. Anthropic has no strict
// JSON response mode, so the contract relies on the prompt instructions plus
// tolerant JSON extraction.
type AnthropicClient struct {
	client   *anthropic.Client
	model    string
	retryCfg *retry.Config
	logger   *zap.Logger
}

var _ QueryGenerator = (*AnthropicClient)(nil)

// NewAnthropicClient creates an Anthropic-backed QueryGenerator.
func NewAnthropicClient(cfg *config.LLMConfig, logger *zap.Logger) *AnthropicClient {
	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(newHTTPClient(cfg)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:   anthropic.NewClient(cfg.Key(), opts...),
		model:    cfg.Model,
		retryCfg: retryConfig(cfg),
		logger:   logger.Named("anthropic"),
	}
}

// GenerateQuery sends the prompt and parses the strict-JSON result.
func (c *AnthropicClient) GenerateQuery(ctx context.Context, prompt string) (*QueryGeneration, error) {
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

func (c *AnthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.1)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   2048,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		statusCode := 0
		var apiErr *anthropic.APIError
		var reqErr *anthropic.RequestError
		if errors.As(err, &reqErr) {
			statusCode = reqErr.StatusCode
		} else if errors.As(err, &apiErr) {
			// API errors come with the HTTP status embedded in the type.
			statusCode = 400
		}
		return "", transportError("request failed", statusCode, err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", NewError(ErrorTypeMalformedResponse, "provider returned no content", false, nil)
	}

	return text, nil
}
