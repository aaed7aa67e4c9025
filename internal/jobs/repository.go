package jobs

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

const jobColumns = `id, employer_id, worker_id, title, description, category, status,
	latitude, longitude, location_name, budget_min, budget_max, agreed_price,
	created_at, updated_at, assigned_at, completed_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.EmployerID, &j.WorkerID, &j.Title, &j.Description, &j.Category, &j.Status,
		&j.Latitude, &j.Longitude, &j.LocationName, &j.BudgetMin, &j.BudgetMax, &j.AgreedPrice,
		&j.CreatedAt, &j.UpdatedAt, &j.AssignedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, j *models.Job) error {
	row := tx.QueryRow(ctx, `
		INSERT INTO jobs (id, employer_id, title, description, category, status,
			latitude, longitude, location_name, budget_min, budget_max)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, j.ID, j.EmployerID, j.Title, j.Description, j.Category, j.Status,
		j.Latitude, j.Longitude, j.LocationName, j.BudgetMin, j.BudgetMax)
	return row.Scan(&j.CreatedAt, &j.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
}

// GetByIDTx reads the job inside the caller's transaction so status checks
// and the following conditional update see the same snapshot.
func (r *Repository) GetByIDTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*models.Job, error) {
	return scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
}

// GetForUpdateTx reads the job and takes its row lock. Writers that must see
// each other's effects (both raters of one job, for example) serialize here.
func (r *Repository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*models.Job, error) {
	return scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, jobID))
}

// ListFilter narrows List. Zero values mean no filtering on that field.
type ListFilter struct {
	Status   string
	Category string
	Limit    int
	Offset   int
}

// ListForEmployer returns the employer's own jobs, newest first.
func (r *Repository) ListForEmployer(ctx context.Context, employerID uuid.UUID, f ListFilter) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE employer_id = $1
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR category = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, employerID, f.Status, f.Category, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

// ListForWorker returns open jobs plus jobs assigned to the worker, newest
// first.
func (r *Repository) ListForWorker(ctx context.Context, workerID uuid.UUID, f ListFilter) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE (status = 'requested' OR worker_id = $1)
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR category = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, workerID, f.Status, f.Category, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

// ListAll is the admin view.
func (r *Repository) ListAll(ctx context.Context, f ListFilter) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE ($1 = '' OR status = $1)
			AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, f.Status, f.Category, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]*models.Job, error) {
	defer rows.Close()
	var list []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

// UpdateStatusTx moves the job from one status to another in a single
// conditional UPDATE. It returns false when the job was no longer in the
// expected status, which means another writer got there first.
func (r *Repository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, from, to string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE jobs SET status = $3, updated_at = now(),
			completed_at = CASE WHEN $3 = 'completed' THEN now() ELSE completed_at END
		WHERE id = $1 AND status = $2
	`, jobID, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AssignTx promotes a requested or offered job to assigned, recording the
// worker and the agreed price (nil when a worker claims without a negotiated
// offer). Conditional on the source status for the same reason as
// UpdateStatusTx.
func (r *Repository) AssignTx(ctx context.Context, tx pgx.Tx, jobID, workerID uuid.UUID, agreedPrice *int64) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE jobs SET status = 'assigned', worker_id = $2,
			agreed_price = COALESCE($3, agreed_price),
			assigned_at = now(), updated_at = now()
		WHERE id = $1 AND status IN ('requested', 'offered')
	`, jobID, workerID, agreedPrice)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRatedTx closes out a completed job once both parties have rated.
func (r *Repository) MarkRatedTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE jobs SET status = 'rated', updated_at = now()
		WHERE id = $1 AND status = 'completed'
	`, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
