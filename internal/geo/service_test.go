package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// recordingStore captures the box and limit the service computed.
type recordingStore struct {
	minLat, maxLat, minLon, maxLon float64
	limit                          int
	profession                     string
	calls                          int
}

func (s *recordingStore) UpdateLocation(_ context.Context, userID uuid.UUID, lat, lon float64, accuracy *float64) (*models.Location, error) {
	s.calls++
	return &models.Location{UserID: userID, Latitude: lat, Longitude: lon, Accuracy: accuracy, IsCurrent: true}, nil
}

func (s *recordingStore) JobsInBox(_ context.Context, minLat, maxLat, minLon, maxLon float64, limit int) ([]*models.Job, error) {
	s.calls++
	s.minLat, s.maxLat, s.minLon, s.maxLon, s.limit = minLat, maxLat, minLon, maxLon, limit
	return nil, nil
}

func (s *recordingStore) WorkersInBox(_ context.Context, minLat, maxLat, minLon, maxLon float64, profession string, limit int) ([]*NearbyWorker, error) {
	s.calls++
	s.minLat, s.maxLat, s.minLon, s.maxLon, s.limit = minLat, maxLat, minLon, maxLon, limit
	s.profession = profession
	return nil, nil
}

func (s *recordingStore) HeatmapInBox(_ context.Context, minLat, maxLat, minLon, maxLon float64) ([]*HeatPoint, error) {
	s.calls++
	s.minLat, s.maxLat, s.minLon, s.maxLon = minLat, maxLat, minLon, maxLon
	return nil, nil
}

func TestNearbyJobsClampsRadius(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store, nil)

	lat, lon := -17.8292, 31.0522
	if _, err := svc.NearbyJobs(context.Background(), lat, lon, 500, 0); err != nil {
		t.Fatalf("NearbyJobs: %v", err)
	}

	wantMinLat, wantMaxLat, wantMinLon, wantMaxLon := BoundingBox(lat, lon, MaxRadiusKm)
	if store.minLat != wantMinLat || store.maxLat != wantMaxLat || store.minLon != wantMinLon || store.maxLon != wantMaxLon {
		t.Errorf("a 500 km request should be clamped to the %v km box", MaxRadiusKm)
	}
	if store.limit != defaultJobsLimit {
		t.Errorf("limit: got %d, want default %d", store.limit, defaultJobsLimit)
	}
}

func TestNearbyWorkersDefaults(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store, nil)

	if _, err := svc.NearbyWorkers(context.Background(), 0, 0, 0, "plumber", 0); err != nil {
		t.Fatalf("NearbyWorkers: %v", err)
	}
	if store.limit != defaultWorkersLimit {
		t.Errorf("limit: got %d, want default %d", store.limit, defaultWorkersLimit)
	}
	if store.profession != "plumber" {
		t.Errorf("profession filter not passed through, got %q", store.profession)
	}

	// A zero radius falls back to the maximum rather than an empty box.
	wantMinLat, _, _, _ := BoundingBox(0, 0, MaxRadiusKm)
	if store.minLat != wantMinLat {
		t.Error("zero radius should widen to the maximum")
	}
}

func TestRejectsOutOfRangeCoordinates(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store, nil)

	if _, err := svc.NearbyJobs(context.Background(), 91, 0, 10, 0); !errors.Is(err, ErrBadCoordinates) {
		t.Errorf("latitude 91 should be rejected, got %v", err)
	}
	if _, err := svc.UpdateLocation(context.Background(), uuid.New(), 0, 181, nil); !errors.Is(err, ErrBadCoordinates) {
		t.Errorf("longitude 181 should be rejected, got %v", err)
	}
	if store.calls != 0 {
		t.Errorf("store should not be touched on invalid input, got %d calls", store.calls)
	}
}
