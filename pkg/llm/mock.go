package llm

import "context"

// MockQueryGenerator is a test double for QueryGenerator.
type MockQueryGenerator struct {
	GenerateQueryFunc func(ctx context.Context, prompt string) (*QueryGeneration, error)
	Prompts           []string
}

var _ QueryGenerator = (*MockQueryGenerator)(nil)

// GenerateQuery records the prompt and delegates to GenerateQueryFunc.
func (m *MockQueryGenerator) GenerateQuery(ctx context.Context, prompt string) (*QueryGeneration, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateQueryFunc != nil {
		return m.GenerateQueryFunc(ctx, prompt)
	}
	return &QueryGeneration{SQL: "SELECT 1", Explanation: "mock"}, nil
}
