package models

import "time"

// Feedback is a user-submitted feedback record.
// Records are created and deleted, never updated in place.
type Feedback struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackStats summarizes the feedback table for the admin dashboard.
type FeedbackStats struct {
	Total     int64 `json:"total_feedbacks"`
	WithPhone int64 `json:"with_phone"`
	// WithoutPhone is always Total - WithPhone.
	WithoutPhone int64 `json:"without_phone"`
	// Recent counts records created within the trailing 7 days.
	Recent int64 `json:"recent_feedbacks"`
	// Today counts records whose creation date is the current calendar date.
	Today int64 `json:"today_feedbacks"`
}
