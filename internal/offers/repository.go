package offers

import (
	"context"
	"time"

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

const offerColumns = `id, job_id, from_user_id, to_user_id, amount, message, status, created_at, updated_at`

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var o models.Offer
	err := row.Scan(&o.ID, &o.JobID, &o.FromUserID, &o.ToUserID, &o.Amount, &o.Message, &o.Status,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, o *models.Offer) error {
	row := tx.QueryRow(ctx, `
		INSERT INTO offers (id, job_id, from_user_id, to_user_id, amount, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, o.ID, o.JobID, o.FromUserID, o.ToUserID, o.Amount, o.Message, o.Status)
	return row.Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *Repository) GetByIDTx(ctx context.Context, tx pgx.Tx, offerID uuid.UUID) (*models.Offer, error) {
	return scanOffer(tx.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, offerID))
}

// ListForJob returns every offer on a job, newest first.
func (r *Repository) ListForJob(ctx context.Context, jobID uuid.UUID) ([]*models.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE job_id = $1
		ORDER BY created_at DESC
	`, jobID)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

// ListForJobParticipant returns only the offers on a job the user sent or
// received.
func (r *Repository) ListForJobParticipant(ctx context.Context, jobID, userID uuid.UUID) ([]*models.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE job_id = $1 AND (from_user_id = $2 OR to_user_id = $2)
		ORDER BY created_at DESC
	`, jobID, userID)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

// ListSent returns the offers the user has made, newest first.
func (r *Repository) ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE from_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

// ListReceived returns the offers addressed to the user, newest first.
func (r *Repository) ListReceived(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE to_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

func collectOffers(rows pgx.Rows) ([]*models.Offer, error) {
	defer rows.Close()
	var list []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// UpdateStatusTx moves an offer between statuses in one conditional UPDATE.
// Returns false when the offer was no longer in the expected status.
func (r *Repository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, offerID uuid.UUID, from, to string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE offers SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, offerID, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountPendingForJobTx counts the job's open offers inside the caller's
// transaction.
func (r *Repository) CountPendingForJobTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (int64, error) {
	var n int64
	row := tx.QueryRow(ctx, `SELECT COUNT(*) FROM offers WHERE job_id = $1 AND status = 'pending'`, jobID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ExpirePendingBeforeTx marks pending offers created before the cutoff as
// expired, returning the distinct ids of the jobs they belonged to and the
// number of offers expired.
func (r *Repository) ExpirePendingBeforeTx(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, int64, error) {
	rows, err := tx.Query(ctx, `
		UPDATE offers SET status = 'expired', updated_at = now()
		WHERE status = 'pending' AND created_at < $1
		RETURNING job_id
	`, cutoff)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var expired int64
	seen := make(map[uuid.UUID]struct{})
	var jobIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		expired++
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		jobIDs = append(jobIDs, id)
	}
	return jobIDs, expired, rows.Err()
}

// ReopenJobsWithoutPendingTx moves offered jobs back to requested when none
// of their offers are still pending.
func (r *Repository) ReopenJobsWithoutPendingTx(ctx context.Context, tx pgx.Tx, jobIDs []uuid.UUID) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}
	tag, err := tx.Exec(ctx, `
		UPDATE jobs SET status = 'requested', updated_at = now()
		WHERE id = ANY($1) AND status = 'offered'
			AND NOT EXISTS (
				SELECT 1 FROM offers o WHERE o.job_id = jobs.id AND o.status = 'pending'
			)
	`, jobIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FullName resolves a user's display name for notification bodies.
func (r *Repository) FullName(ctx context.Context, userID uuid.UUID) (string, error) {
	var name string
	row := r.pool.QueryRow(ctx, `SELECT full_name FROM users WHERE id = $1`, userID)
	if err := row.Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}
