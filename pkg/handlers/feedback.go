package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/apperrors"
	"github.com/clarifaisql/engine/pkg/logging"
	"github.com/clarifaisql/engine/pkg/repositories"
)

// FeedbackHandler serves the public feedback form and the admin endpoints.
type FeedbackHandler struct {
	repo   repositories.FeedbackRepository
	logger *zap.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(repo repositories.FeedbackRepository, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers the handler's routes on the given mux. Everything
// except the public submission endpoint goes behind the admin middleware.
func (h *FeedbackHandler) RegisterRoutes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /feedback/{$}", h.Submit)

	mux.Handle("POST /admin/verify/{$}", admin(http.HandlerFunc(h.VerifyAdmin)))
	mux.Handle("GET /feedbacks/{$}", admin(http.HandlerFunc(h.List)))
	mux.Handle("GET /feedback/{id}", admin(http.HandlerFunc(h.GetByID)))
	mux.Handle("DELETE /feedback/{id}", admin(http.HandlerFunc(h.Delete)))
	mux.Handle("GET /feedback/stats/{$}", admin(http.HandlerFunc(h.Stats)))
}

// Submit handles POST /feedback/. Name, email and message are required form
// fields; phone is optional and stored as NULL when absent.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	message := strings.TrimSpace(r.FormValue("message"))

	required := []struct{ field, value string }{
		{"name", name},
		{"email", email},
		{"message", message},
	}
	for _, f := range required {
		if f.value == "" {
			err := fmt.Errorf("%w: %s", apperrors.ErrMissingField, f.field)
			_ = ErrorResponse(w, http.StatusBadRequest, "missing_field", err.Error())
			return
		}
	}

	var phone *string
	if p := strings.TrimSpace(r.FormValue("phone")); p != "" {
		phone = &p
	}

	id, err := h.repo.Create(r.Context(), name, email, phone, message)
	if err != nil {
		h.logger.Error("Failed to save feedback",
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "storage_failure", "failed to save feedback")
		return
	}

	h.logger.Info("Feedback saved", zap.Int64("feedback_id", id))
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Feedback saved successfully!",
		"feedback_id": id,
	})
}

// VerifyAdmin handles POST /admin/verify/. Reaching the handler at all means
// the middleware accepted the secret.
func (h *FeedbackHandler) VerifyAdmin(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Admin access granted",
	})
}

// List handles GET /feedbacks/, newest first.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	feedbacks, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list feedbacks",
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "storage_failure", "failed to list feedbacks")
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"feedbacks": feedbacks})
}

// GetByID handles GET /feedback/{id}.
func (h *FeedbackHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	feedback, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Feedback not found")
			return
		}
		h.logger.Error("Failed to fetch feedback",
			zap.Int64("feedback_id", id),
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "storage_failure", "failed to fetch feedback")
		return
	}

	_ = WriteJSON(w, http.StatusOK, feedback)
}

// Delete handles DELETE /feedback/{id}.
func (h *FeedbackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Feedback not found")
			return
		}
		h.logger.Error("Failed to delete feedback",
			zap.Int64("feedback_id", id),
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "storage_failure", "failed to delete feedback")
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Feedback #%d deleted successfully", id),
	})
}

// Stats handles GET /feedback/stats/.
func (h *FeedbackHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute feedback stats",
			zap.String("error", logging.SanitizeError(err)))
		_ = ErrorResponse(w, http.StatusInternalServerError, "storage_failure", "failed to compute stats")
		return
	}

	_ = WriteJSON(w, http.StatusOK, stats)
}

// pathID parses the {id} path segment, writing a 400 when it is not an integer.
func (h *FeedbackHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_id", "feedback id must be an integer")
		return 0, false
	}
	return id, true
}
