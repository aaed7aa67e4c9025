package models

import (
	"time"

	"github.com/google/uuid"
)

// Job lifecycle statuses. Rated and cancelled are terminal.
const (
	JobStatusRequested = "requested"
	JobStatusOffered   = "offered"
	JobStatusAssigned  = "assigned"
	JobStatusEnRoute   = "en_route"
	JobStatusOnSite    = "on_site"
	JobStatusCompleted = "completed"
	JobStatusRated     = "rated"
	JobStatusCancelled = "cancelled"
	JobStatusNoShow    = "no_show"
	JobStatusDisputed  = "disputed"
)

type Job struct {
	ID           uuid.UUID  `json:"id"`
	EmployerID   uuid.UUID  `json:"employer_id"`
	WorkerID     *uuid.UUID `json:"worker_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	LocationName string     `json:"location_name,omitempty"`
	BudgetMin    int64      `json:"budget_min"`
	BudgetMax    int64      `json:"budget_max"`
	AgreedPrice  *int64     `json:"agreed_price,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
