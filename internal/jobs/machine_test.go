package jobs

import (
	"errors"
	"testing"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.JobStatusRequested, models.JobStatusOffered, true},
		{models.JobStatusRequested, models.JobStatusCancelled, true},
		{models.JobStatusRequested, models.JobStatusAssigned, false},
		{models.JobStatusOffered, models.JobStatusAssigned, true},
		{models.JobStatusOffered, models.JobStatusRequested, true},
		{models.JobStatusAssigned, models.JobStatusEnRoute, true},
		{models.JobStatusAssigned, models.JobStatusNoShow, true},
		{models.JobStatusAssigned, models.JobStatusCompleted, false},
		{models.JobStatusEnRoute, models.JobStatusOnSite, true},
		{models.JobStatusEnRoute, models.JobStatusCompleted, false},
		{models.JobStatusOnSite, models.JobStatusCompleted, true},
		{models.JobStatusOnSite, models.JobStatusDisputed, true},
		{models.JobStatusOnSite, models.JobStatusCancelled, false},
		{models.JobStatusCompleted, models.JobStatusRated, true},
		{models.JobStatusCompleted, models.JobStatusDisputed, true},
		{models.JobStatusNoShow, models.JobStatusDisputed, true},
		{models.JobStatusNoShow, models.JobStatusCancelled, false},
		{models.JobStatusDisputed, models.JobStatusCompleted, true},
		{models.JobStatusDisputed, models.JobStatusCancelled, true},

		// Terminal statuses go nowhere.
		{models.JobStatusRated, models.JobStatusDisputed, false},
		{models.JobStatusCancelled, models.JobStatusRequested, false},

		// Unknown statuses allow nothing.
		{"bogus", models.JobStatusCancelled, false},
		{models.JobStatusRequested, "bogus", false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{models.JobStatusRated, models.JobStatusCancelled} {
		if !IsTerminal(status) {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []string{
		models.JobStatusRequested, models.JobStatusOffered, models.JobStatusAssigned,
		models.JobStatusEnRoute, models.JobStatusOnSite, models.JobStatusCompleted,
		models.JobStatusNoShow, models.JobStatusDisputed,
	} {
		if IsTerminal(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := error(&InvalidTransitionError{
		From:    models.JobStatusRequested,
		To:      models.JobStatusCompleted,
		Allowed: AllowedTransitions(models.JobStatusRequested),
	})

	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatal("errors.As should unwrap *InvalidTransitionError")
	}
	if len(ite.Allowed) != 2 {
		t.Errorf("allowed list: got %v, want [offered cancelled]", ite.Allowed)
	}

	terminal := &InvalidTransitionError{From: models.JobStatusRated, To: models.JobStatusDisputed}
	if msg := terminal.Error(); msg == "" {
		t.Error("terminal error message should not be empty")
	}
}

// AllowedTransitions must return a copy so callers cannot mutate the table.
func TestAllowedTransitionsCopies(t *testing.T) {
	first := AllowedTransitions(models.JobStatusRequested)
	first[0] = "mutated"
	second := AllowedTransitions(models.JobStatusRequested)
	if second[0] == "mutated" {
		t.Error("mutating the returned slice must not affect the table")
	}
}
