package ratings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// InsertTx writes the rating inside the caller's transaction. The unique
// index on (job_id, rater_id) turns a double submission into pgconn 23505.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, rt *models.Rating) error {
	return tx.QueryRow(ctx, `
		INSERT INTO ratings (id, job_id, rater_id, ratee_id, score, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, rt.ID, rt.JobID, rt.RaterID, rt.RateeID, rt.Score, rt.Comment).Scan(&rt.CreatedAt)
}

// CountForJobTx counts ratings on a job inside the transaction; with the job
// row locked, a count of two means both parties have rated.
func (r *Repository) CountForJobTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM ratings WHERE job_id = $1
	`, jobID).Scan(&n)
	return n, err
}

// ListForUser returns ratings received by a user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Rating, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_id, rater_id, ratee_id, score, comment, created_at
		FROM ratings
		WHERE ratee_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Rating
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.ID, &rt.JobID, &rt.RaterID, &rt.RateeID, &rt.Score, &rt.Comment, &rt.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &rt)
	}
	return list, rows.Err()
}
