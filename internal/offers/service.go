package offers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/jobs"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/metrics"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

var (
	ErrOfferNotFound  = errors.New("offer not found")
	ErrNotRecipient   = errors.New("only the offer recipient may respond")
	ErrOfferClosed    = errors.New("offer is no longer pending")
	ErrJobUnavailable = errors.New("job is not open for offers")
	ErrBadAmount      = errors.New("offer amount must be positive")
	ErrBadAction      = errors.New("action must be accepted, rejected, or counter")
)

// Store is the offer persistence surface.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	InsertTx(ctx context.Context, tx pgx.Tx, o *models.Offer) error
	GetByIDTx(ctx context.Context, tx pgx.Tx, offerID uuid.UUID) (*models.Offer, error)
	ListForJob(ctx context.Context, jobID uuid.UUID) ([]*models.Offer, error)
	ListForJobParticipant(ctx context.Context, jobID, userID uuid.UUID) ([]*models.Offer, error)
	ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error)
	ListReceived(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, offerID uuid.UUID, from, to string) (bool, error)
	CountPendingForJobTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (int64, error)
	ExpirePendingBeforeTx(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]uuid.UUID, int64, error)
	ReopenJobsWithoutPendingTx(ctx context.Context, tx pgx.Tx, jobIDs []uuid.UUID) (int64, error)
	FullName(ctx context.Context, userID uuid.UUID) (string, error)
}

// Jobs is the slice of the job repository the offer flow drives.
type Jobs interface {
	GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	GetByIDTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID) (*models.Job, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, from, to string) (bool, error)
	AssignTx(ctx context.Context, tx pgx.Tx, jobID, workerID uuid.UUID, agreedPrice *int64) (bool, error)
}

// Wallet debits the sender inside the offer transaction.
type Wallet interface {
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
}

// Notifier delivers offer events to the counterparty, best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID)
}

// CreateInput carries the fields of a new offer.
type CreateInput struct {
	JobID    uuid.UUID
	ToUserID uuid.UUID
	Amount   int64
	Message  string
}

// RespondInput carries the recipient's decision. CounterAmount and
// CounterMessage are only read when Action is counter.
type RespondInput struct {
	Action         string
	CounterAmount  int64
	CounterMessage string
}

type Service interface {
	Create(ctx context.Context, fromUserID uuid.UUID, in CreateInput) (*models.Offer, error)
	Respond(ctx context.Context, offerID, actorID uuid.UUID, in RespondInput) (*models.Offer, error)
	ListForJob(ctx context.Context, jobID, actorID uuid.UUID, role string) ([]*models.Offer, error)
	ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error)
	ListReceived(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type service struct {
	repo   Store
	jobs   Jobs
	wallet Wallet
	notes  Notifier
	cost   int64
	ttl    time.Duration
	log    *slog.Logger
}

var _ Service = (*service)(nil)

// NewService creates an offer service. cost is the token fee per offer sent;
// ttl is how long a pending offer stays open before the expiry sweep closes it.
func NewService(repo Store, jobsRepo Jobs, wallet Wallet, notes Notifier, cost int64, ttl time.Duration, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, jobs: jobsRepo, wallet: wallet, notes: notes, cost: cost, ttl: ttl, log: log}
}

// Create debits the sender and records a pending offer. The first offer on a
// requested job also moves the job to offered, in the same transaction.
func (s *service) Create(ctx context.Context, fromUserID uuid.UUID, in CreateInput) (*models.Offer, error) {
	if in.Amount <= 0 {
		return nil, ErrBadAmount
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := s.jobs.GetByIDTx(ctx, tx, in.JobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobs.ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job.Status != models.JobStatusRequested && job.Status != models.JobStatusOffered {
		return nil, ErrJobUnavailable
	}

	offer := &models.Offer{
		ID:         uuid.New(),
		JobID:      in.JobID,
		FromUserID: fromUserID,
		ToUserID:   in.ToUserID,
		Amount:     in.Amount,
		Message:    in.Message,
		Status:     models.OfferStatusPending,
	}

	if _, err := s.wallet.DebitTx(ctx, tx, fromUserID, s.cost, models.TxTypeDeduction, "Offer on job: "+job.Title, &offer.ID); err != nil {
		return nil, err
	}
	if err := s.repo.InsertTx(ctx, tx, offer); err != nil {
		return nil, fmt.Errorf("insert offer: %w", err)
	}

	movedToOffered := false
	if job.Status == models.JobStatusRequested {
		movedToOffered, err = s.jobs.UpdateStatusTx(ctx, tx, job.ID, models.JobStatusRequested, models.JobStatusOffered)
		if err != nil {
			return nil, fmt.Errorf("mark job offered: %w", err)
		}
		if !movedToOffered {
			return nil, jobs.ErrStaleStatus
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if movedToOffered {
		metrics.RecordJobTransition(models.JobStatusOffered)
	}
	s.log.Info("offer created", "offer_id", offer.ID, "job_id", job.ID,
		"from_user_id", fromUserID, "to_user_id", in.ToUserID, "amount", in.Amount)

	s.notes.Notify(ctx, offer.ToUserID, models.NotificationJobOffer,
		"New offer on: "+job.Title,
		fmt.Sprintf("$%d from %s", offer.Amount, s.senderName(ctx, fromUserID)), &offer.ID)
	return offer, nil
}

// Respond applies the recipient's decision to a pending offer. Accepting
// assigns the job to the non-employer participant at the offered amount.
// Rejecting the last open offer puts the job back on the market. Countering
// closes the original and opens a fresh offer back to the sender.
func (s *service) Respond(ctx context.Context, offerID, actorID uuid.UUID, in RespondInput) (*models.Offer, error) {
	switch in.Action {
	case models.OfferStatusAccepted, models.OfferStatusRejected, models.OfferStatusCounter:
	default:
		return nil, ErrBadAction
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	offer, err := s.repo.GetByIDTx(ctx, tx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("load offer: %w", err)
	}
	if offer.ToUserID != actorID {
		return nil, ErrNotRecipient
	}
	if offer.Status != models.OfferStatusPending {
		return nil, ErrOfferClosed
	}

	job, err := s.jobs.GetByIDTx(ctx, tx, offer.JobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobs.ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}

	moved, err := s.repo.UpdateStatusTx(ctx, tx, offer.ID, models.OfferStatusPending, in.Action)
	if err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}
	if !moved {
		return nil, ErrOfferClosed
	}
	offer.Status = in.Action

	var counter *models.Offer
	switch in.Action {
	case models.OfferStatusAccepted:
		// The worker is whichever offer participant does not own the job, so
		// acceptance works in both directions of the negotiation.
		worker := offer.FromUserID
		if worker == job.EmployerID {
			worker = offer.ToUserID
		}
		assigned, err := s.jobs.AssignTx(ctx, tx, job.ID, worker, &offer.Amount)
		if err != nil {
			return nil, fmt.Errorf("assign job: %w", err)
		}
		if !assigned {
			return nil, jobs.ErrStaleStatus
		}

	case models.OfferStatusRejected:
		pending, err := s.repo.CountPendingForJobTx(ctx, tx, job.ID)
		if err != nil {
			return nil, fmt.Errorf("count pending offers: %w", err)
		}
		if pending == 0 {
			if _, err := s.jobs.UpdateStatusTx(ctx, tx, job.ID, models.JobStatusOffered, models.JobStatusRequested); err != nil {
				return nil, fmt.Errorf("reopen job: %w", err)
			}
		}

	case models.OfferStatusCounter:
		if in.CounterAmount <= 0 {
			return nil, ErrBadAmount
		}
		counter = &models.Offer{
			ID:         uuid.New(),
			JobID:      job.ID,
			FromUserID: actorID,
			ToUserID:   offer.FromUserID,
			Amount:     in.CounterAmount,
			Message:    in.CounterMessage,
			Status:     models.OfferStatusPending,
		}
		if err := s.repo.InsertTx(ctx, tx, counter); err != nil {
			return nil, fmt.Errorf("insert counter-offer: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info("offer response", "offer_id", offer.ID, "job_id", job.ID,
		"action", in.Action, "actor_id", actorID)

	switch in.Action {
	case models.OfferStatusAccepted:
		metrics.RecordJobTransition(models.JobStatusAssigned)
		s.notes.Notify(ctx, offer.FromUserID, models.NotificationJobAssigned,
			"Offer accepted: "+job.Title,
			fmt.Sprintf("Agreed at $%d", offer.Amount), &job.ID)
	case models.OfferStatusRejected:
		s.notes.Notify(ctx, offer.FromUserID, models.NotificationSystem,
			"Offer declined: "+job.Title,
			fmt.Sprintf("Your offer of $%d was declined", offer.Amount), &offer.ID)
	case models.OfferStatusCounter:
		s.notes.Notify(ctx, offer.FromUserID, models.NotificationJobOffer,
			"Counter-offer on: "+job.Title,
			fmt.Sprintf("$%d from %s", counter.Amount, s.senderName(ctx, actorID)), &counter.ID)
	}
	return offer, nil
}

// ListForJob returns the offers on a job. Admins and the job's participants
// see everything; anyone else sees only the offers they sent or received.
func (s *service) ListForJob(ctx context.Context, jobID, actorID uuid.UUID, role string) ([]*models.Offer, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, jobs.ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}

	if role == models.RoleAdmin || actorID == job.EmployerID ||
		(job.WorkerID != nil && *job.WorkerID == actorID) {
		return s.repo.ListForJob(ctx, jobID)
	}
	return s.repo.ListForJobParticipant(ctx, jobID, actorID)
}

func (s *service) ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	return s.repo.ListSent(ctx, userID)
}

func (s *service) ListReceived(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	return s.repo.ListReceived(ctx, userID)
}

// ExpireStale closes pending offers older than the TTL and reopens any
// offered job left with no open offers. Run periodically.
func (s *service) ExpireStale(ctx context.Context) (int64, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	jobIDs, expired, err := s.repo.ExpirePendingBeforeTx(ctx, tx, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("expire offers: %w", err)
	}
	if expired == 0 {
		return 0, nil
	}

	reopened, err := s.repo.ReopenJobsWithoutPendingTx(ctx, tx, jobIDs)
	if err != nil {
		return 0, fmt.Errorf("reopen jobs: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info("expired stale offers", "offers", expired, "jobs_reopened", reopened)
	return expired, nil
}

func (s *service) senderName(ctx context.Context, userID uuid.UUID) string {
	name, err := s.repo.FullName(ctx, userID)
	if err != nil {
		s.log.Warn("sender name lookup failed", "user_id", userID, "error", err)
		return "a user"
	}
	return name
}
