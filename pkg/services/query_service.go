package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/apperrors"
	"github.com/clarifaisql/engine/pkg/database"
	"github.com/clarifaisql/engine/pkg/ingest"
	"github.com/clarifaisql/engine/pkg/llm"
	"github.com/clarifaisql/engine/pkg/logging"
	"github.com/clarifaisql/engine/pkg/models"
	"github.com/clarifaisql/engine/pkg/prompts"
	enginesql "github.com/clarifaisql/engine/pkg/sql"
)

// ProcessQueryResult is the outcome of a full upload-and-ask round trip.
type ProcessQueryResult struct {
	SQLQuery    string
	Explanation string
	Result      []map[string]any
	TableInfo   models.TableInfo
}

// QueryService turns an uploaded CSV plus a natural-language question into
// executed query results.
type QueryService interface {
	ProcessQuery(ctx context.Context, filename string, fileData []byte, question string) (*ProcessQueryResult, error)
}

type queryService struct {
	generator llm.QueryGenerator
	logger    *zap.Logger
}

var _ QueryService = (*queryService)(nil)

// NewQueryService creates a QueryService backed by the given generator.
func NewQueryService(generator llm.QueryGenerator, logger *zap.Logger) QueryService {
	return &queryService{
		generator: generator,
		logger:    logger.Named("query_service"),
	}
}

// ProcessQuery runs the pipeline: parse the upload, load it into a fresh
// in-memory database, profile the table, generate SQL from the question,
// validate it, and execute it. The in-memory database lives only for the
// duration of the call.
func (s *queryService) ProcessQuery(ctx context.Context, filename string, fileData []byte, question string) (*ProcessQueryResult, error) {
	table, err := ingest.ParseCSV(filename, fileData)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Parsed upload",
		zap.String("filename", filename),
		zap.String("table", table.Name),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", len(table.Rows)))

	store, err := database.NewEphemeralStore(s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryExecution, err)
	}
	defer store.Close()

	if err := store.Load(ctx, table); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryExecution, err)
	}

	profile, sampleRows, err := ProfileTable(ctx, store, table.Name, s.logger)
	if err != nil {
		return nil, err
	}

	prompt := prompts.BuildQueryGenerationPrompt(profile, sampleRows, question)
	generation, err := s.generator.GenerateQuery(ctx, prompt)
	if err != nil {
		s.logger.Warn("Query generation failed",
			zap.String("question", question),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	validation := enginesql.ValidateAndNormalize(generation.SQL)
	if validation.Error != nil {
		s.logger.Warn("Generated SQL rejected",
			zap.String("sql", logging.SanitizeQuery(generation.SQL)),
			zap.Error(validation.Error))
		return nil, validation.Error
	}
	if validation.NormalizedSQL == "" {
		return nil, apperrors.ErrNoQueryGenerated
	}

	s.logger.Info("Executing generated query",
		zap.String("sql", logging.SanitizeQuery(validation.NormalizedSQL)))

	result, err := store.Execute(ctx, validation.NormalizedSQL)
	if err != nil {
		// The engine's own message is surfaced to the caller untouched.
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryExecution, err)
	}

	return &ProcessQueryResult{
		SQLQuery:    validation.NormalizedSQL,
		Explanation: generation.Explanation,
		Result:      result.Rows,
		TableInfo: models.TableInfo{
			TableName:    profile.TableName,
			TotalRows:    profile.TotalRows,
			ColumnsCount: len(profile.Columns),
		},
	}, nil
}
