package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is one GPS fix. The fixes for a user form an append-only series;
// exactly one row per user has IsCurrent set at any time.
type Location struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	IsCurrent  bool      `json:"is_current"`
	RecordedAt time.Time `json:"recorded_at"`
}
