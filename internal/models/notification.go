package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotificationJobRequest   = "job_request"
	NotificationJobOffer     = "job_offer"
	NotificationJobAssigned  = "job_assigned"
	NotificationJobCompleted = "job_completed"
	NotificationJobCancelled = "job_cancelled"
	NotificationPayment      = "payment"
	NotificationMessage      = "message"
	NotificationRating       = "rating"
	NotificationSystem       = "system"
)

type Notification struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	ActionURL   *string    `json:"action_url,omitempty"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}
