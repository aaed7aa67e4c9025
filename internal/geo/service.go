package geo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

var ErrBadCoordinates = errors.New("coordinates out of range")

const (
	// MaxRadiusKm caps proximity searches; wider requests are clamped.
	MaxRadiusKm = 50.0
	// maxHeatmapRadiusKm is wider because the heatmap is a zoomed-out view.
	maxHeatmapRadiusKm = 100.0

	defaultJobsLimit    = 50
	defaultWorkersLimit = 100
)

// Store is the repository surface the service needs.
type Store interface {
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, accuracy *float64) (*models.Location, error)
	JobsInBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, limit int) ([]*models.Job, error)
	WorkersInBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, profession string, limit int) ([]*NearbyWorker, error)
	HeatmapInBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64) ([]*HeatPoint, error)
}

type Service interface {
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, accuracy *float64) (*models.Location, error)
	NearbyJobs(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Job, error)
	NearbyWorkers(ctx context.Context, lat, lon, radiusKm float64, profession string, limit int) ([]*NearbyWorker, error)
	Heatmap(ctx context.Context, lat, lon, radiusKm float64) ([]*HeatPoint, error)
}

type service struct {
	repo Store
	log  *slog.Logger
}

func NewService(repo Store, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, log: log}
}

var _ Service = (*service)(nil)

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (s *service) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, accuracy *float64) (*models.Location, error) {
	if !validCoordinates(lat, lon) {
		return nil, ErrBadCoordinates
	}
	return s.repo.UpdateLocation(ctx, userID, lat, lon, accuracy)
}

func (s *service) NearbyJobs(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Job, error) {
	if !validCoordinates(lat, lon) {
		return nil, ErrBadCoordinates
	}
	radiusKm = clampRadius(radiusKm, MaxRadiusKm)
	if limit <= 0 || limit > defaultWorkersLimit {
		limit = defaultJobsLimit
	}
	minLat, maxLat, minLon, maxLon := BoundingBox(lat, lon, radiusKm)
	return s.repo.JobsInBox(ctx, minLat, maxLat, minLon, maxLon, limit)
}

func (s *service) NearbyWorkers(ctx context.Context, lat, lon, radiusKm float64, profession string, limit int) ([]*NearbyWorker, error) {
	if !validCoordinates(lat, lon) {
		return nil, ErrBadCoordinates
	}
	radiusKm = clampRadius(radiusKm, MaxRadiusKm)
	if limit <= 0 || limit > defaultWorkersLimit {
		limit = defaultWorkersLimit
	}
	minLat, maxLat, minLon, maxLon := BoundingBox(lat, lon, radiusKm)
	return s.repo.WorkersInBox(ctx, minLat, maxLat, minLon, maxLon, profession, limit)
}

func (s *service) Heatmap(ctx context.Context, lat, lon, radiusKm float64) ([]*HeatPoint, error) {
	if !validCoordinates(lat, lon) {
		return nil, ErrBadCoordinates
	}
	radiusKm = clampRadius(radiusKm, maxHeatmapRadiusKm)
	minLat, maxLat, minLon, maxLon := BoundingBox(lat, lon, radiusKm)
	return s.repo.HeatmapInBox(ctx, minLat, maxLat, minLon, maxLon)
}

func clampRadius(radiusKm, max float64) float64 {
	if radiusKm <= 0 || radiusKm > max {
		return max
	}
	return radiusKm
}
