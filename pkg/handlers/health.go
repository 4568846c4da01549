package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/config"
	"github.com/clarifaisql/engine/pkg/logging"
	"github.com/clarifaisql/engine/pkg/repositories"
)

const serviceName = "ClarifaiSQL API"

// HealthHandler serves the root, health check and API info endpoints.
type HealthHandler struct {
	cfg    *config.Config
	repo   repositories.FeedbackRepository
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cfg *config.Config, repo repositories.FeedbackRepository, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, repo: repo, logger: logger}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health/{$}", h.Health)
	mux.HandleFunc("GET /api/info/{$}", h.APIInfo)
}

// Root handles GET / with a welcome message and endpoint navigation.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"message":     "Welcome to ClarifaiSQL API",
		"version":     h.cfg.Version,
		"description": "AI-powered Natural Language to SQL Query Generator",
		"key_endpoints": map[string]string{
			"process_query": "/process-query/",
			"feedback":      "/feedback/",
			"health":        "/health/",
			"api_info":      "/api/info/",
		},
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode root response", zap.Error(err))
	}
}

// Health handles GET /health/. It pings the feedback database and reports
// degraded status with a 500 rather than crashing when the ping fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format(time.RFC3339)

	if err := h.repo.Ping(r.Context()); err != nil {
		h.logger.Error("Health check database ping failed",
			zap.String("error", logging.SanitizeError(err)))
		_ = WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     logging.SanitizeError(err),
			"timestamp": timestamp,
		})
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"service":   serviceName,
		"version":   h.cfg.Version,
		"timestamp": timestamp,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// APIInfo handles GET /api/info/ with an endpoint reference for developers.
func (h *HealthHandler) APIInfo(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"title":       serviceName,
		"version":     h.cfg.Version,
		"description": "AI-powered SQL query generation and feedback management system",
		"endpoints": map[string]map[string]string{
			"ai_query": {
				"POST /process-query/": "Process CSV and generate AI-powered SQL queries",
			},
			"feedback": {
				"POST /feedback/":       "Save user feedback",
				"GET /feedbacks/":       "Get all feedbacks (admin)",
				"GET /feedback/{id}":    "Get feedback by ID (admin)",
				"DELETE /feedback/{id}": "Delete feedback by ID (admin)",
				"GET /feedback/stats/":  "Get feedback statistics (admin)",
				"POST /admin/verify/":   "Verify admin secret",
			},
			"system": {
				"GET /":          "Root endpoint with API navigation",
				"GET /health/":   "Health check for monitoring",
				"GET /api/info/": "API information and endpoint reference",
			},
		},
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode api info response", zap.Error(err))
	}
}
