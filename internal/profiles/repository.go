package profiles

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

const profileColumns = `user_id, bio, city, profession_tags, average_rating, total_ratings, completed_jobs, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Bio, &p.City, &p.ProfessionTags,
		&p.AverageRating, &p.TotalRatings, &p.CompletedJobs, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1
	`, userID))
}

// GetPublic returns the profile together with the owner's display name.
func (r *Repository) GetPublic(ctx context.Context, userID uuid.UUID) (*models.Profile, string, error) {
	var (
		p        models.Profile
		fullName string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT p.user_id, p.bio, p.city, p.profession_tags,
		       p.average_rating, p.total_ratings, p.completed_jobs, p.updated_at,
		       u.full_name
		FROM user_profiles p
		INNER JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`, userID).Scan(&p.UserID, &p.Bio, &p.City, &p.ProfessionTags,
		&p.AverageRating, &p.TotalRatings, &p.CompletedJobs, &p.UpdatedAt, &fullName)
	if err != nil {
		return nil, "", err
	}
	return &p, fullName, nil
}

// EnsureTx inserts an empty profile row if the user has none yet.
// Registration calls it inside the signup transaction.
func (r *Repository) EnsureTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

// Update overwrites only the fields the caller supplied; nil pointers and the
// nil tag slice leave the stored value alone.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, bio, city *string, tags []string) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `
		UPDATE user_profiles
		SET bio             = COALESCE($2, bio),
		    city            = COALESCE($3, city),
		    profession_tags = COALESCE($4, profession_tags),
		    updated_at      = now()
		WHERE user_id = $1
		RETURNING `+profileColumns+`
	`, userID, bio, city, tags))
}

// ApplyRatingTx folds one new score into the cached aggregates. The running
// average is recomputed from the stored average and count, so no rescan of
// the ratings table is needed.
func (r *Repository) ApplyRatingTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, score int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_profiles (user_id, average_rating, total_ratings)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET average_rating = (user_profiles.average_rating * user_profiles.total_ratings + $2)
		                     / (user_profiles.total_ratings + 1),
		    total_ratings  = user_profiles.total_ratings + 1,
		    updated_at     = now()
	`, userID, score)
	return err
}

// IncrementCompletedTx bumps the completed-jobs counter for a worker.
func (r *Repository) IncrementCompletedTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_profiles (user_id, completed_jobs) VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET completed_jobs = user_profiles.completed_jobs + 1, updated_at = now()
	`, userID)
	return err
}
