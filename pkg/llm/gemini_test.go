package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/config"
)

func geminiTestConfig(baseURL string) *config.LLMConfig {
	return &config.LLMConfig{
		Provider:       "gemini",
		Model:          "gemini-2.0-flash-exp",
		BaseURL:        baseURL,
		APIKey:         "test-key",
		TimeoutSeconds: 5,
		MaxAttempts:    2,
		RetryDelayMs:   1,
		MaxConns:       2,
	}
}

// geminiEnvelope wraps generated text in the provider's response shape.
func geminiEnvelope(text string) string {
	envelope := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	data, _ := json.Marshal(envelope)
	return string(data)
}

func TestGeminiClient_GenerateQuery(t *testing.T) {
	generation := `{"generated_sql": "SELECT AVG(price) FROM products", "explanation": "Averages the price column over all rows of the products table."}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash-exp:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		require.NotNil(t, req.GenerationConfig.ResponseSchema)
		assert.ElementsMatch(t, []string{"generated_sql", "explanation"},
			req.GenerationConfig.ResponseSchema.Required)

		fmt.Fprint(w, geminiEnvelope(generation))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), zap.NewNop())
	result, err := client.GenerateQuery(context.Background(), "what is the average price?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT AVG(price) FROM products", result.SQL)
	assert.NotEmpty(t, result.Explanation)
}

func TestGeminiClient_RetriesTransportFailureThenSucceeds(t *testing.T) {
	generation := `{"generated_sql": "SELECT 1", "explanation": "Trivial query returning the constant one."}`

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, geminiEnvelope(generation))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), zap.NewNop())
	result, err := client.GenerateQuery(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", result.SQL)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiClient_ExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), zap.NewNop())
	_, err := client.GenerateQuery(context.Background(), "prompt")
	require.Error(t, err)

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrorTypeTransport, llmErr.Type)
	// MaxAttempts is 2: one initial call plus one retry.
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiClient_MalformedGenerationNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, geminiEnvelope("this is not json at all"))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), zap.NewNop())
	_, err := client.GenerateQuery(context.Background(), "prompt")
	require.Error(t, err)

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrorTypeMalformedResponse, llmErr.Type)
	assert.Equal(t, int32(1), calls.Load(), "shape failures must not be retried")
}

func TestGeminiClient_MissingFieldIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiEnvelope(`{"generated_sql": "SELECT 1"}`))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), zap.NewNop())
	_, err := client.GenerateQuery(context.Background(), "prompt")

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrorTypeMalformedResponse, llmErr.Type)
}

func TestGeminiClient_EmptySQLIsNoQueryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiEnvelope(`{"generated_sql": "   ", "explanation": "cannot answer this"}`))
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), zap.NewNop())
	_, err := client.GenerateQuery(context.Background(), "prompt")

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrorTypeNoQuery, llmErr.Type)
}

func TestGeminiClient_EmptyEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer server.Close()

	client := NewGeminiClient(geminiTestConfig(server.URL), zap.NewNop())
	_, err := client.GenerateQuery(context.Background(), "prompt")

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrorTypeMalformedResponse, llmErr.Type)
}
