// Package prompts builds LLM prompts for SQL generation.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clarifaisql/engine/pkg/models"
)

// BuildQueryGenerationPrompt assembles the prompt sent to the completion
// provider. It embeds the schema profile, a bounded set of sample rows and
// the user's question, and pins the output contract to a two-field JSON
// object. Pure function: identical inputs produce byte-identical output.
func BuildQueryGenerationPrompt(profile *models.SchemaProfile, sampleRows []map[string]any, question string) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert SQL analyst and data interpreter. ")
	prompt.WriteString("You have been given a database table with the following comprehensive schema:\n\n")

	prompt.WriteString("DATABASE CONTEXT:\n")
	prompt.WriteString(fmt.Sprintf("- Table Name: %s\n", profile.TableName))
	prompt.WriteString(fmt.Sprintf("- Total Records: %d\n", profile.TotalRows))
	prompt.WriteString(fmt.Sprintf("- Columns: %d\n\n", len(profile.Columns)))

	prompt.WriteString("DETAILED SCHEMA:\n")
	prompt.WriteString(marshalIndented(profile.Columns))
	prompt.WriteString("\n\n")

	prompt.WriteString("SAMPLE DATA (first rows):\n")
	prompt.WriteString(marshalIndented(sampleRows))
	prompt.WriteString("\n\n")

	prompt.WriteString(fmt.Sprintf("USER QUESTION: %q\n\n", question))

	prompt.WriteString("INSTRUCTIONS:\n")
	prompt.WriteString("1. Generate a precise SQLite query that answers the user's question\n")
	prompt.WriteString(fmt.Sprintf("2. Use the EXACT table name %q in your query\n", profile.TableName))
	prompt.WriteString("3. Use EXACT column names from the schema above\n")
	prompt.WriteString("4. Create a detailed, professional explanation that:\n")
	prompt.WriteString("   - Explains what the query does step-by-step\n")
	prompt.WriteString("   - Mentions the specific columns and table being used\n")
	prompt.WriteString("   - Describes the business logic and reasoning\n")
	prompt.WriteString("5. If the question cannot be answered with the available data, explain why\n\n")

	prompt.WriteString("Your response MUST be a valid JSON object with these exact keys:\n")
	prompt.WriteString("- \"generated_sql\": The complete SQLite query string\n")
	prompt.WriteString("- \"explanation\": A comprehensive, professional explanation (3-4 sentences minimum)\n\n")

	prompt.WriteString("Focus on accuracy and provide meaningful insights about the data structure and query logic.\n")

	return prompt.String()
}

// marshalIndented renders a value as indented JSON. encoding/json sorts map
// keys, which keeps the output deterministic for sample rows.
func marshalIndented(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
