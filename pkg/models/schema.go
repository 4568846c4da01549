package models

// ColumnProfile describes one column of an uploaded table for prompt context.
type ColumnProfile struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// UniqueCount is the number of distinct values in the column.
	// Zero when the counting query failed (best-effort).
	UniqueCount int64 `json:"unique_count"`
	// SampleValues holds up to a handful of distinct non-null values.
	// Empty when sampling failed (best-effort).
	SampleValues []any `json:"sample_values"`
}

// SchemaProfile is a read-only view of an uploaded table, bounded so the
// resulting prompt stays small. Never mutated after creation.
type SchemaProfile struct {
	TableName string          `json:"table_name"`
	TotalRows int64           `json:"total_rows"`
	Columns   []ColumnProfile `json:"columns"`
}

// TableInfo is the table metadata echoed back in query responses.
type TableInfo struct {
	TableName    string `json:"table_name"`
	TotalRows    int64  `json:"total_rows"`
	ColumnsCount int    `json:"columns_count"`
}
