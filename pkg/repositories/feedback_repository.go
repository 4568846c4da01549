// Package repositories provides data access for persistent records.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clarifaisql/engine/pkg/apperrors"
	"github.com/clarifaisql/engine/pkg/models"
)

// FeedbackRepository provides data access for user feedback records.
type FeedbackRepository interface {
	Create(ctx context.Context, name, email string, phone *string, message string) (int64, error)
	List(ctx context.Context) ([]*models.Feedback, error)
	GetByID(ctx context.Context, id int64) (*models.Feedback, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.FeedbackStats, error)
	Ping(ctx context.Context) error
}

type feedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new FeedbackRepository over the feedback database.
func NewFeedbackRepository(db *sql.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

var _ FeedbackRepository = (*feedbackRepository)(nil)

func (r *feedbackRepository) Create(ctx context.Context, name, email string, phone *string, message string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (name, email, phone, message) VALUES (?, ?, ?, ?)`,
		name, email, phone, message)
	if err != nil {
		return 0, fmt.Errorf("failed to insert feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get feedback id: %w", err)
	}
	return id, nil
}

func (r *feedbackRepository) List(ctx context.Context) ([]*models.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, message, created_at
		 FROM feedback
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	feedbacks := make([]*models.Feedback, 0)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return feedbacks, nil
}

func (r *feedbackRepository) GetByID(ctx context.Context, id int64) (*models.Feedback, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, message, created_at
		 FROM feedback WHERE id = ?`, id)

	var fb models.Feedback
	err := row.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Phone, &fb.Message, &fb.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback %d: %w", id, err)
	}
	return &fb, nil
}

func (r *feedbackRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feedback %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *feedbackRepository) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{}

	row := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COUNT(CASE WHEN phone IS NOT NULL AND phone != '' THEN 1 END),
			COUNT(CASE WHEN created_at >= datetime('now', '-7 days') THEN 1 END),
			COUNT(CASE WHEN date(created_at) = date('now') THEN 1 END)
		 FROM feedback`)
	if err := row.Scan(&stats.Total, &stats.WithPhone, &stats.Recent, &stats.Today); err != nil {
		return nil, fmt.Errorf("failed to compute feedback stats: %w", err)
	}

	stats.WithoutPhone = stats.Total - stats.WithPhone
	return stats, nil
}

// Ping verifies the feedback store answers a trivial round-trip.
func (r *feedbackRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("feedback database unreachable: %w", err)
	}
	return nil
}

func scanFeedback(rows *sql.Rows) (*models.Feedback, error) {
	var fb models.Feedback
	if err := rows.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Phone, &fb.Message, &fb.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan feedback: %w", err)
	}
	return &fb, nil
}
