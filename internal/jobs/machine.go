package jobs

import (
	"fmt"
	"strings"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// transitions is the job lifecycle table. A status missing from the map (or
// mapping to an empty list) is terminal.
var transitions = map[string][]string{
	models.JobStatusRequested: {models.JobStatusOffered, models.JobStatusCancelled},
	models.JobStatusOffered:   {models.JobStatusAssigned, models.JobStatusCancelled, models.JobStatusRequested},
	models.JobStatusAssigned:  {models.JobStatusEnRoute, models.JobStatusCancelled, models.JobStatusNoShow},
	models.JobStatusEnRoute:   {models.JobStatusOnSite, models.JobStatusCancelled, models.JobStatusNoShow},
	models.JobStatusOnSite:    {models.JobStatusCompleted, models.JobStatusDisputed},
	models.JobStatusCompleted: {models.JobStatusRated, models.JobStatusDisputed},
	models.JobStatusNoShow:    {models.JobStatusDisputed},
	models.JobStatusDisputed:  {models.JobStatusCompleted, models.JobStatusCancelled},
	models.JobStatusRated:     {},
	models.JobStatusCancelled: {},
}

// CanTransition reports whether from → to is a legal lifecycle step.
// Unknown statuses allow nothing.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from the given one.
func AllowedTransitions(from string) []string {
	allowed := transitions[from]
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether no further transitions exist from the status.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// InvalidTransitionError is returned when a requested lifecycle step is not
// in the table. Handlers surface it as a conflict with the allowed list.
type InvalidTransitionError struct {
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot transition from %s to %s: %s is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("cannot transition from %s to %s, allowed: %s", e.From, e.To, strings.Join(e.Allowed, ", "))
}
