// Package llm provides clients for remote completion providers that turn a
// schema-aware prompt into a SQL statement plus explanation.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/clarifaisql/engine/pkg/config"
)

// QueryGeneration is the strict two-field contract every provider must
// return: a SQL statement and a multi-sentence explanation.
type QueryGeneration struct {
	SQL         string `json:"generated_sql"`
	Explanation string `json:"explanation"`
}

// QueryGenerator converts a prompt into a QueryGeneration.
// Use this interface for dependency injection to enable mocking in tests.
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, prompt string) (*QueryGeneration, error)
}

// newHTTPClient builds the shared outbound HTTP client. The transport caps
// concurrent connections to the provider; exhausted pools queue new calls
// instead of failing them.
func newHTTPClient(cfg *config.LLMConfig) *http.Client {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	return &http.Client{
		Timeout: cfg.Timeout(),
		Transport: &http.Transport{
			MaxIdleConns:        maxConns,
			MaxIdleConnsPerHost: maxConns,
			MaxConnsPerHost:     maxConns,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// parseGeneration parses raw provider output into a QueryGeneration and
// enforces the response contract. A response that is not JSON or omits a
// field is terminal; an empty SQL statement is terminal as well.
func parseGeneration(raw string) (*QueryGeneration, error) {
	gen, err := ParseJSONResponse[QueryGeneration](raw)
	if err != nil {
		return nil, NewError(ErrorTypeMalformedResponse,
			"provider output is not a valid JSON object", false, err)
	}

	gen.SQL = strings.TrimSpace(gen.SQL)
	gen.Explanation = strings.TrimSpace(gen.Explanation)

	if gen.SQL == "" {
		return nil, NewError(ErrorTypeNoQuery,
			"the model could not generate a SQL query for this question", false, nil)
	}
	if gen.Explanation == "" {
		return nil, NewError(ErrorTypeMalformedResponse,
			"provider output is missing the explanation field", false, nil)
	}

	return &gen, nil
}
