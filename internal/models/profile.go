package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the public-facing details for a user. Rating aggregates
// are mutated only by the ratings service.
type Profile struct {
	UserID         uuid.UUID `json:"user_id"`
	Bio            string    `json:"bio"`
	City           string    `json:"city"`
	ProfessionTags []string  `json:"profession_tags"`
	AverageRating  float64   `json:"average_rating"`
	TotalRatings   int       `json:"total_ratings"`
	CompletedJobs  int       `json:"completed_jobs"`
	UpdatedAt      time.Time `json:"updated_at"`
}
