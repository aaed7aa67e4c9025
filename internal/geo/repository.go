package geo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpdateLocation retires the user's previous current location and inserts
// the new one, in one transaction so there is never more than one current
// row per user.
func (r *Repository) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, accuracy *float64) (*models.Location, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE locations SET is_current = false
		WHERE user_id = $1 AND is_current = true
	`, userID); err != nil {
		return nil, fmt.Errorf("retire old location: %w", err)
	}

	loc := &models.Location{
		ID:        uuid.New(),
		UserID:    userID,
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  accuracy,
		IsCurrent: true,
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO locations (id, user_id, latitude, longitude, accuracy, is_current)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING recorded_at
	`, loc.ID, loc.UserID, loc.Latitude, loc.Longitude, loc.Accuracy)
	if err := row.Scan(&loc.RecordedAt); err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return loc, nil
}

// JobsInBox returns open jobs whose coordinates fall inside the box, newest
// first.
func (r *Repository) JobsInBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, limit int) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employer_id, worker_id, title, description, category, status,
			latitude, longitude, location_name, budget_min, budget_max, agreed_price,
			created_at, updated_at, assigned_at, completed_at
		FROM jobs
		WHERE status = 'requested'
			AND latitude IS NOT NULL
			AND latitude BETWEEN $1 AND $2
			AND longitude BETWEEN $3 AND $4
		ORDER BY created_at DESC
		LIMIT $5
	`, minLat, maxLat, minLon, maxLon, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Job
	for rows.Next() {
		var j models.Job
		err := rows.Scan(&j.ID, &j.EmployerID, &j.WorkerID, &j.Title, &j.Description, &j.Category, &j.Status,
			&j.Latitude, &j.Longitude, &j.LocationName, &j.BudgetMin, &j.BudgetMax, &j.AgreedPrice,
			&j.CreatedAt, &j.UpdatedAt, &j.AssignedAt, &j.CompletedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, &j)
	}
	return list, rows.Err()
}

// NearbyWorker is a map pin: a worker's current position joined with the
// profile fields the client renders.
type NearbyWorker struct {
	UserID         uuid.UUID `json:"user_id"`
	FullName       string    `json:"full_name"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	ProfessionTags []string  `json:"profession_tags"`
	AverageRating  float64   `json:"average_rating"`
	IsOnline       bool      `json:"is_online"`
}

// WorkersInBox returns online, active, unsuspended workers whose current
// location falls inside the box. profession narrows by tag when non-empty.
func (r *Repository) WorkersInBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, profession string, limit int) ([]*NearbyWorker, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.full_name, l.latitude, l.longitude,
			COALESCE(p.profession_tags, '{}'), COALESCE(p.average_rating, 0), u.is_online
		FROM users u
		JOIN locations l ON l.user_id = u.id AND l.is_current = true
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.role = 'employee'
			AND u.is_online = true
			AND u.is_active = true
			AND u.is_suspended = false
			AND l.latitude BETWEEN $1 AND $2
			AND l.longitude BETWEEN $3 AND $4
			AND ($5 = '' OR $5 = ANY(p.profession_tags))
		LIMIT $6
	`, minLat, maxLat, minLon, maxLon, profession, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*NearbyWorker
	for rows.Next() {
		var w NearbyWorker
		if err := rows.Scan(&w.UserID, &w.FullName, &w.Latitude, &w.Longitude, &w.ProfessionTags, &w.AverageRating, &w.IsOnline); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

// HeatPoint is one heatmap sample. Intensity is always 1 per worker; the
// client aggregates density.
type HeatPoint struct {
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	Intensity      int      `json:"intensity"`
	ProfessionTags []string `json:"profession_tags"`
}

// HeatmapInBox returns current locations of online workers inside the box.
func (r *Repository) HeatmapInBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64) ([]*HeatPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.latitude, l.longitude, COALESCE(p.profession_tags, '{}')
		FROM locations l
		JOIN users u ON u.id = l.user_id
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE l.is_current = true
			AND u.is_online = true
			AND u.role = 'employee'
			AND l.latitude BETWEEN $1 AND $2
			AND l.longitude BETWEEN $3 AND $4
	`, minLat, maxLat, minLon, maxLon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*HeatPoint
	for rows.Next() {
		p := &HeatPoint{Intensity: 1}
		if err := rows.Scan(&p.Lat, &p.Lng, &p.ProfessionTags); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
