package ratings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/jobs"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/metrics"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

var (
	ErrBadScore       = errors.New("score must be between 1 and 5")
	ErrNotRatable     = errors.New("job is not ready for rating")
	ErrNotParticipant = errors.New("caller did not take part in this job")
	ErrAlreadyRated   = errors.New("job already rated by this user")
)

const (
	defaultPage = 20
	maxPage     = 100
)

// Store is the rating persistence surface. *Repository implements it.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	InsertTx(ctx context.Context, tx pgx.Tx, rt *models.Rating) error
	CountForJobTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Rating, error)
}

// Jobs is the slice of the jobs repository the service needs. The locking
// read keeps two concurrent raters of one job serialized, so the second one
// reliably sees both ratings and closes the job out.
type Jobs interface {
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*models.Job, error)
	MarkRatedTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (bool, error)
}

// Profiles folds accepted scores into the ratee's cached aggregates.
type Profiles interface {
	ApplyRatingTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, score int) error
}

// Notifier tells the ratee, best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID)
}

// RateInput carries one rating submission. The ratee is derived, never
// client-supplied.
type RateInput struct {
	JobID   uuid.UUID
	Score   int
	Comment string
}

type Service interface {
	Rate(ctx context.Context, raterID uuid.UUID, in RateInput) (*models.Rating, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Rating, error)
}

type service struct {
	repo     Store
	jobs     Jobs
	profiles Profiles
	notes    Notifier
	log      *slog.Logger
}

var _ Service = (*service)(nil)

func NewService(repo Store, jobsRepo Jobs, profiles Profiles, notes Notifier, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, jobs: jobsRepo, profiles: profiles, notes: notes, log: log}
}

// Rate records one participant's score for the other. The rating row, the
// ratee's aggregate update, and the possible close-out to rated all commit
// together.
func (s *service) Rate(ctx context.Context, raterID uuid.UUID, in RateInput) (*models.Rating, error) {
	if in.Score < 1 || in.Score > 5 {
		return nil, ErrBadScore
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := s.jobs.GetForUpdateTx(ctx, tx, in.JobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobs.ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job.Status != models.JobStatusCompleted && job.Status != models.JobStatusRated {
		return nil, ErrNotRatable
	}
	if job.WorkerID == nil {
		return nil, ErrNotRatable
	}
	if raterID != job.EmployerID && raterID != *job.WorkerID {
		return nil, ErrNotParticipant
	}

	rateeID := job.EmployerID
	if raterID == job.EmployerID {
		rateeID = *job.WorkerID
	}

	rt := &models.Rating{
		ID:      uuid.New(),
		JobID:   job.ID,
		RaterID: raterID,
		RateeID: rateeID,
		Score:   in.Score,
		Comment: in.Comment,
	}
	if err := s.repo.InsertTx(ctx, tx, rt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyRated
		}
		return nil, fmt.Errorf("insert rating: %w", err)
	}
	if err := s.profiles.ApplyRatingTx(ctx, tx, rateeID, in.Score); err != nil {
		return nil, fmt.Errorf("apply rating aggregate: %w", err)
	}

	n, err := s.repo.CountForJobTx(ctx, tx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}
	var closed bool
	if n >= 2 && job.Status == models.JobStatusCompleted {
		closed, err = s.jobs.MarkRatedTx(ctx, tx, job.ID)
		if err != nil {
			return nil, fmt.Errorf("mark job rated: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if closed {
		metrics.RecordJobTransition(models.JobStatusRated)
	}
	s.log.Info("rating submitted", "job_id", job.ID, "rater_id", raterID,
		"ratee_id", rateeID, "score", in.Score, "job_closed", closed)

	body := rt.Comment
	if body == "" {
		body = "You received a new rating"
	}
	s.notes.Notify(ctx, rateeID, models.NotificationRating,
		fmt.Sprintf("New %d-star rating", in.Score), body, &rt.ID)

	return rt, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Rating, error) {
	if limit <= 0 {
		limit = defaultPage
	}
	if limit > maxPage {
		limit = maxPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}
