package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/config"
	"github.com/clarifaisql/engine/pkg/retry"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiClient calls the Gemini generateContent API. The response schema is
// pinned so the provider returns the two-field JSON contract directly.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	retryCfg   *retry.Config
	logger     *zap.Logger
}

var _ QueryGenerator = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini-backed QueryGenerator.
func NewGeminiClient(cfg *config.LLMConfig, logger *zap.Logger) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		httpClient: newHTTPClient(cfg),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.Key(),
		retryCfg:   retryConfig(cfg),
		logger:     logger.Named("gemini"),
	}
}

// retryConfig maps the LLM config onto the retry package: a fixed delay
// between a small fixed number of attempts.
func retryConfig(cfg *config.LLMConfig) *retry.Config {
	maxRetries := cfg.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retry.Config{
		MaxRetries:   maxRetries,
		InitialDelay: cfg.RetryDelay(),
		MaxDelay:     cfg.RetryDelay(),
		Multiplier:   1.0,
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
	Temperature      float64       `json:"temperature"`
	MaxOutputTokens  int           `json:"maxOutputTokens"`
}

type geminiSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]geminiSchema `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// queryGenerationSchema pins the provider output to the two-field contract.
var queryGenerationSchema = &geminiSchema{
	Type: "OBJECT",
	Properties: map[string]geminiSchema{
		"generated_sql": {Type: "STRING"},
		"explanation":   {Type: "STRING"},
	},
	Required: []string{"generated_sql", "explanation"},
}

// GenerateQuery sends the prompt and parses the strict-JSON result.
// Transport failures are retried within the configured budget; a successful
// HTTP response that fails shape validation is terminal.
func (c *GeminiClient) GenerateQuery(ctx context.Context, prompt string) (*QueryGeneration, error) {
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

// complete performs one generateContent round-trip and returns the generated text.
func (c *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   queryGenerationSchema,
			Temperature:      0.1,
			MaxOutputTokens:  2048,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError("request failed", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError("failed to read response body", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", transportError(
			fmt.Sprintf("provider returned %s", strings.TrimSpace(string(respBody))),
			resp.StatusCode, nil)
	}

	var envelope geminiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", NewError(ErrorTypeMalformedResponse, "provider envelope is not valid JSON", false, err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", NewError(ErrorTypeMalformedResponse, "provider envelope has no candidates", false, nil)
	}

	return envelope.Candidates[0].Content.Parts[0].Text, nil
}
