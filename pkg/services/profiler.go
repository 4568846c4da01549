// Package services implements the query-processing pipeline.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/apperrors"
	"github.com/clarifaisql/engine/pkg/database"
	"github.com/clarifaisql/engine/pkg/models"
)

// Sampling caps keep the prompt small. Generation cost grows with prompt
// size, so these stay deliberately tiny.
const (
	maxSampleRows   = 3
	maxSampleValues = 5
)

// ProfileTable builds the read-only schema profile of a loaded table plus a
// bounded set of sample rows for prompt context.
//
// Column introspection and the row count are required; failure there aborts
// the request. Per-column distinct counts and value samples are best-effort:
// a failing column degrades to zero/empty rather than failing the profile.
func ProfileTable(ctx context.Context, store *database.EphemeralStore, tableName string, logger *zap.Logger) (*models.SchemaProfile, []map[string]any, error) {
	columns, err := store.Introspect(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrSchemaIntrospection, err)
	}

	totalRows, err := store.Count(ctx, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrSchemaIntrospection, err)
	}

	profile := &models.SchemaProfile{
		TableName: tableName,
		TotalRows: totalRows,
		Columns:   make([]models.ColumnProfile, 0, len(columns)),
	}

	for _, col := range columns {
		colProfile := models.ColumnProfile{
			Name:         col.Name,
			Type:         col.Type,
			SampleValues: []any{},
		}

		if count, err := store.CountDistinct(ctx, tableName, col.Name); err == nil {
			colProfile.UniqueCount = count
		} else {
			logger.Debug("Distinct count failed, skipping",
				zap.String("column", col.Name), zap.Error(err))
		}

		if values, err := store.Sample(ctx, tableName, col.Name, maxSampleValues); err == nil {
			colProfile.SampleValues = values
		} else {
			logger.Debug("Value sampling failed, skipping",
				zap.String("column", col.Name), zap.Error(err))
		}

		profile.Columns = append(profile.Columns, colProfile)
	}

	sampleRows := []map[string]any{}
	if result, err := store.Execute(ctx, fmt.Sprintf(`SELECT * FROM "%s" LIMIT %d`, tableName, maxSampleRows)); err == nil {
		sampleRows = result.Rows
	} else {
		logger.Warn("Sample row query failed, continuing without samples",
			zap.String("table", tableName), zap.Error(err))
	}

	return profile, sampleRows, nil
}
