package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/apperrors"
	"github.com/clarifaisql/engine/pkg/llm"
	"github.com/clarifaisql/engine/pkg/logging"
	"github.com/clarifaisql/engine/pkg/models"
	"github.com/clarifaisql/engine/pkg/services"
	enginesql "github.com/clarifaisql/engine/pkg/sql"
)

// maxUploadBytes caps in-memory multipart parsing.
const maxUploadBytes = 32 << 20

// ProcessQueryResponse is the success body for POST /process-query/.
type ProcessQueryResponse struct {
	SQLQuery    string           `json:"sql_query"`
	Explanation string           `json:"explanation"`
	Result      []map[string]any `json:"result"`
	TableInfo   models.TableInfo `json:"table_info"`
}

// QueryHandler serves the natural-language query endpoint.
type QueryHandler struct {
	service services.QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(service services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{service: service, logger: logger}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /process-query/{$}", h.ProcessQuery)
}

// ProcessQuery handles POST /process-query/. It expects a multipart form
// with a CSV upload under "file" and the question under "query".
func (h *QueryHandler) ProcessQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request",
			"expected multipart form data with 'file' and 'query' fields")
		return
	}

	question := strings.TrimSpace(r.FormValue("query"))
	if question == "" {
		missing := fmt.Errorf("%w: query", apperrors.ErrMissingField)
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_field", missing.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		missing := fmt.Errorf("%w: file", apperrors.ErrMissingField)
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_field", missing.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file")
		return
	}

	result, err := h.service.ProcessQuery(r.Context(), header.Filename, data, question)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := ProcessQueryResponse{
		SQLQuery:    result.SQLQuery,
		Explanation: result.Explanation,
		Result:      result.Result,
		TableInfo:   result.TableInfo,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

// writeError maps pipeline failures onto the endpoint's error contract.
// Client faults (bad upload, unanswerable question, rejected SQL) are 400;
// provider and engine failures are 500.
func (h *QueryHandler) writeError(w http.ResponseWriter, err error) {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Type {
		case llm.ErrorTypeNoQuery:
			_ = ErrorResponse(w, http.StatusBadRequest, "no_query_generated", llmErr.Message)
		default:
			h.logger.Error("Query generation failed",
				zap.String("error", logging.SanitizeError(err)))
			_ = ErrorResponse(w, http.StatusInternalServerError, "query_generation_failed",
				"failed to generate SQL query")
		}
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidFileType):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_file_type", err.Error())
	case errors.Is(err, apperrors.ErrMalformedCSV):
		_ = ErrorResponse(w, http.StatusBadRequest, "malformed_csv", err.Error())
	case errors.Is(err, apperrors.ErrNoQueryGenerated):
		_ = ErrorResponse(w, http.StatusBadRequest, "no_query_generated", err.Error())
	case errors.Is(err, enginesql.ErrMultipleStatements),
		errors.Is(err, enginesql.ErrNotReadOnly):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, apperrors.ErrSchemaIntrospection):
		h.logger.Error("Schema introspection failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "schema_introspection_failed", err.Error())
	case errors.Is(err, apperrors.ErrQueryExecution):
		// The engine's message is passed through so callers see what failed.
		_ = ErrorResponse(w, http.StatusInternalServerError, "query_execution_failed", err.Error())
	default:
		h.logger.Error("Unexpected query pipeline failure",
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error",
			"an unexpected error occurred")
	}
}
