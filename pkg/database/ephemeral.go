// Package database provides the embedded SQLite stores: a durable file for
// feedback records and a request-scoped in-memory store for uploaded tables.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/ingest"
)

// ColumnInfo is a column name/declared-type pair from table introspection.
type ColumnInfo struct {
	Name string
	Type string
}

// QueryResult contains the results of a SQL query execution.
type QueryResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// EphemeralStore wraps a transient in-memory SQLite instance scoped to one
// request. The store and every table in it is discarded on Close.
type EphemeralStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEphemeralStore opens a fresh in-memory SQLite instance.
func NewEphemeralStore(logger *zap.Logger) (*EphemeralStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every pooled connection would get its own private :memory: database,
	// so the pool must stay at exactly one connection.
	db.SetMaxOpenConns(1)

	return &EphemeralStore{db: db, logger: logger}, nil
}

// Close discards the store and everything in it.
func (s *EphemeralStore) Close() error {
	return s.db.Close()
}

// Load creates the table and inserts all rows, replacing any existing
// relation of the same name. Cells are converted according to the inferred
// column types; empty cells become NULL.
func (s *EphemeralStore) Load(ctx context.Context, table *ingest.Table) error {
	if len(table.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", table.Name)
	}

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table.Name)); err != nil {
		return fmt.Errorf("failed to drop existing table: %w", err)
	}

	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		defs[i] = quoteIdent(col.Name) + " " + col.Type
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table.Name), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to create table %q: %w", table.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(table.Columns)), ",")
	insertStmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table.Name), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertStmt.Close()

	for _, row := range table.Rows {
		args := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			cell := ""
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			args[i] = convertCell(cell, col.Type)
		}
		if _, err := insertStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}

	s.logger.Debug("Loaded table into ephemeral store",
		zap.String("table", table.Name),
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)))
	return nil
}

// Introspect returns the column name/type pairs of a loaded table.
func (s *EphemeralStore) Introspect(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(tableName)+")")
	if err != nil {
		return nil, fmt.Errorf("failed to introspect table %q: %w", tableName, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		columns = append(columns, ColumnInfo{Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column info: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q does not exist", tableName)
	}

	return columns, nil
}

// Sample returns up to limit distinct non-null values from a column.
func (s *EphemeralStore) Sample(ctx context.Context, tableName, column string, limit int) ([]any, error) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT ?",
		quoteIdent(column), quoteIdent(tableName), quoteIdent(column))

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample column %q: %w", column, err)
	}
	defer rows.Close()

	values := make([]any, 0, limit)
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan sample value: %w", err)
		}
		values = append(values, normalizeValue(v))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating samples: %w", err)
	}

	return values, nil
}

// CountDistinct returns the number of distinct values in a column.
func (s *EphemeralStore) CountDistinct(ctx context.Context, tableName, column string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", quoteIdent(column), quoteIdent(tableName))
	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count distinct values in %q: %w", column, err)
	}
	return count, nil
}

// Count returns the total row count of a table.
func (s *EphemeralStore) Count(ctx context.Context, tableName string) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(tableName)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %q: %w", tableName, err)
	}
	return count, nil
}

// Execute runs an arbitrary read query and returns a rectangular result.
// Engine-level errors are returned verbatim; values are converted to plain
// JSON-representable scalars.
func (s *EphemeralStore) Execute(ctx context.Context, sqlText string) (*QueryResult, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// convertCell turns a raw CSV cell into a typed value for insertion.
// Conversion failures fall back to the raw string; SQLite stores it anyway.
func convertCell(cell, columnType string) any {
	if cell == "" {
		return nil
	}
	switch columnType {
	case ingest.TypeInteger:
		if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return n
		}
	case ingest.TypeReal:
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return f
		}
	}
	return cell
}

// normalizeValue converts driver-native values into plain JSON scalars.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return v
	}
}

// quoteIdent quotes a SQL identifier, doubling any embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
