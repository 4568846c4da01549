package ingest

import (
	"path"
	"strings"
)

// keywordCategory maps a column-name keyword to a semantic table name.
type keywordCategory struct {
	keyword string
	label   string
}

// keywordCategories is checked in order; the first keyword found in any
// column name wins. The labels are a best-effort aid for prompt context,
// not a correctness-critical identifier.
var keywordCategories = []keywordCategory{
	{"product", "products"},
	{"customer", "customers"},
	{"client", "customers"},
	{"employee", "employees"},
	{"staff", "employees"},
	{"order", "orders"},
	{"sale", "sales"},
	{"property", "properties"},
	{"real_estate", "properties"},
	{"student", "students"},
	{"transaction", "transactions"},
	{"inventory", "inventory"},
}

// InferTableName picks a table name for an uploaded file. Column-name
// keywords take priority over the filename; the fallback is the lower-cased
// file name with its extension, whitespace and separator characters removed.
func InferTableName(filename string, columnNames []string) string {
	lowered := make([]string, len(columnNames))
	for i, name := range columnNames {
		lowered[i] = strings.ToLower(name)
	}

	for _, cat := range keywordCategories {
		for _, col := range lowered {
			if strings.Contains(col, cat.keyword) {
				return cat.label
			}
		}
	}

	if name := fallbackTableName(filename); name != "" {
		return name
	}
	return "data_table"
}

// fallbackTableName derives an identifier-safe name from the file name.
func fallbackTableName(filename string) string {
	name := strings.ToLower(filename)
	name = strings.TrimSuffix(name, path.Ext(name))

	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
