package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/metrics"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrNotParticipant = errors.New("caller is not a participant in this job")
	ErrStaleStatus    = errors.New("job status changed concurrently, retry")
)

const (
	defaultListSize = 20
	maxListSize     = 100
)

// Store is the repository surface the service needs.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, j *models.Job) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	GetByIDTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*models.Job, error)
	ListForEmployer(ctx context.Context, employerID uuid.UUID, f ListFilter) ([]*models.Job, error)
	ListForWorker(ctx context.Context, workerID uuid.UUID, f ListFilter) ([]*models.Job, error)
	ListAll(ctx context.Context, f ListFilter) ([]*models.Job, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, from, to string) (bool, error)
	AssignTx(ctx context.Context, tx pgx.Tx, jobID, workerID uuid.UUID, agreedPrice *int64) (bool, error)
}

// Wallet is the ledger surface the service needs: posting a job costs tokens.
type Wallet interface {
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
}

// Notifier delivers lifecycle notifications to the counterparty. Delivery is
// best effort and never fails the transition.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID)
}

// Profiles keeps worker aggregates current. The completed-jobs counter moves
// in the same transaction as the status row.
type Profiles interface {
	IncrementCompletedTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// CreateInput carries the employer-supplied fields of a new job post.
type CreateInput struct {
	Title        string
	Description  string
	Category     string
	Latitude     *float64
	Longitude    *float64
	LocationName string
	BudgetMin    int64
	BudgetMax    int64
}

type Service interface {
	Create(ctx context.Context, employerID uuid.UUID, in CreateInput) (*models.Job, error)
	Get(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	List(ctx context.Context, userID uuid.UUID, role string, f ListFilter) ([]*models.Job, error)
	Transition(ctx context.Context, jobID, actorID uuid.UUID, actorRole, to string) (*models.Job, error)
}

type service struct {
	repo     Store
	wallet   Wallet
	notifier Notifier
	profiles Profiles
	postCost int64
	log      *slog.Logger
}

// NewService creates a jobs service. postCost is the token price of posting
// a job, debited atomically with the insert.
func NewService(repo Store, wallet Wallet, notifier Notifier, profiles Profiles, postCost int64, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, wallet: wallet, notifier: notifier, profiles: profiles, postCost: postCost, log: log}
}

var _ Service = (*service)(nil)

func (s *service) Create(ctx context.Context, employerID uuid.UUID, in CreateInput) (*models.Job, error) {
	job := &models.Job{
		ID:           uuid.New(),
		EmployerID:   employerID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Status:       models.JobStatusRequested,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		LocationName: in.LocationName,
		BudgetMin:    in.BudgetMin,
		BudgetMax:    in.BudgetMax,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Debit and insert commit together: no job without the fee, no fee
	// without the job.
	if _, err := s.wallet.DebitTx(ctx, tx, employerID, s.postCost, models.TxTypeDeduction, "Job posting: "+in.Title, &job.ID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateTx(ctx, tx, job); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info("job posted", "job_id", job.ID, "employer_id", employerID, "category", job.Category)
	return job, nil
}

func (s *service) Get(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// List dispatches on role: employers see their own jobs, workers see open
// jobs plus their assignments, admins see everything.
func (s *service) List(ctx context.Context, userID uuid.UUID, role string, f ListFilter) ([]*models.Job, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListSize
	}
	if f.Limit > maxListSize {
		f.Limit = maxListSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch role {
	case models.RoleAdmin:
		return s.repo.ListAll(ctx, f)
	case models.RoleEmployee:
		return s.repo.ListForWorker(ctx, userID, f)
	default:
		return s.repo.ListForEmployer(ctx, userID, f)
	}
}

func (s *service) Transition(ctx context.Context, jobID, actorID uuid.UUID, actorRole, to string) (*models.Job, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := s.repo.GetByIDTx(ctx, tx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}

	if err := canTransition(job, actorID, actorRole, to); err != nil {
		return nil, err
	}
	if !CanTransition(job.Status, to) {
		return nil, &InvalidTransitionError{From: job.Status, To: to, Allowed: AllowedTransitions(job.Status)}
	}

	var moved bool
	if to == models.JobStatusAssigned {
		// A worker claiming an offered job becomes its worker. Offer
		// acceptance goes through the offers flow instead and carries a price.
		moved, err = s.repo.AssignTx(ctx, tx, jobID, actorID, nil)
	} else {
		moved, err = s.repo.UpdateStatusTx(ctx, tx, jobID, job.Status, to)
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !moved {
		return nil, ErrStaleStatus
	}
	if to == models.JobStatusCompleted && s.profiles != nil && job.WorkerID != nil {
		if err := s.profiles.IncrementCompletedTx(ctx, tx, *job.WorkerID); err != nil {
			return nil, fmt.Errorf("count completed job: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordJobTransition(to)
	s.log.Info("job transition", "job_id", jobID, "from", job.Status, "to", to, "actor_id", actorID)
	s.notifyCounterparty(ctx, job, actorID, to)

	return s.repo.GetByID(ctx, jobID)
}

// canTransition is the permission check shared by every transition path.
// Admins may always act. Employers act on their own jobs. Workers act on
// jobs assigned to them, with one exception: claiming an offered job (the
// transition to assigned) before worker_id is set.
func canTransition(job *models.Job, actorID uuid.UUID, role, to string) error {
	switch role {
	case models.RoleAdmin:
		if to == models.JobStatusAssigned {
			return ErrNotParticipant // assignment needs a worker identity
		}
		return nil
	case models.RoleEmployer:
		if job.EmployerID != actorID {
			return ErrNotParticipant
		}
		if to == models.JobStatusAssigned {
			return ErrNotParticipant // employers assign by accepting an offer
		}
		return nil
	case models.RoleEmployee:
		if job.WorkerID != nil && *job.WorkerID == actorID {
			return nil
		}
		if job.WorkerID == nil && to == models.JobStatusAssigned {
			return nil
		}
		return ErrNotParticipant
	default:
		return ErrNotParticipant
	}
}

func (s *service) notifyCounterparty(ctx context.Context, job *models.Job, actorID uuid.UUID, to string) {
	if s.notifier == nil {
		return
	}
	var recipient *uuid.UUID
	if actorID == job.EmployerID {
		recipient = job.WorkerID
	} else {
		recipient = &job.EmployerID
	}
	if recipient == nil {
		return
	}

	typ := models.NotificationSystem
	switch to {
	case models.JobStatusAssigned:
		typ = models.NotificationJobAssigned
	case models.JobStatusCompleted:
		typ = models.NotificationJobCompleted
	case models.JobStatusCancelled:
		typ = models.NotificationJobCancelled
	}
	s.notifier.Notify(ctx, *recipient, typ, "Job update: "+job.Title, "Status changed to "+to, &job.ID)
}
