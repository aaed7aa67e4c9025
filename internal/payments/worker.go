package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/pesepay"
)

// PollPaymentArgs queues a settlement poll for one pending payment.
type PollPaymentArgs struct {
	PaymentID uuid.UUID `json:"payment_id"`
}

func (PollPaymentArgs) Kind() string { return "poll_payment" }

// PollService is the slice of the payments service the poller needs.
type PollService interface {
	Get(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	Settle(ctx context.Context, paymentID uuid.UUID) error
	Fail(ctx context.Context, paymentID uuid.UUID) error
}

// StatusPoller blocks until the gateway reports a terminal status or the
// attempt budget runs out.
type StatusPoller interface {
	PollUntilTerminal(ctx context.Context, pollURL string, interval time.Duration, attempts int) (pesepay.Status, error)
}

// PollWorker drives a payment to settlement by polling the gateway. A run
// that exhausts its budget with the payment still pending snoozes the job
// rather than failing it; the money may still arrive.
type PollWorker struct {
	river.WorkerDefaults[PollPaymentArgs]
	svc      PollService
	poller   StatusPoller
	interval time.Duration
	attempts int
	snooze   time.Duration
	log      *slog.Logger
}

// NewPollWorker creates the settlement poll worker. interval and attempts
// bound a single run; snooze spaces runs apart.
func NewPollWorker(svc PollService, poller StatusPoller, interval time.Duration, attempts int, snooze time.Duration, log *slog.Logger) *PollWorker {
	if log == nil {
		log = slog.Default()
	}
	return &PollWorker{
		svc:      svc,
		poller:   poller,
		interval: interval,
		attempts: attempts,
		snooze:   snooze,
		log:      log,
	}
}

// Timeout gives one run enough room for its full poll budget.
func (w *PollWorker) Timeout(*river.Job[PollPaymentArgs]) time.Duration {
	return time.Duration(w.attempts+1)*w.interval + 30*time.Second
}

func (w *PollWorker) Work(ctx context.Context, job *river.Job[PollPaymentArgs]) error {
	paymentID := job.Args.PaymentID

	p, err := w.svc.Get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			w.log.Warn("poll job for unknown payment", "payment_id", paymentID)
			return nil
		}
		return err
	}
	if p.Status != models.PaymentStatusPending {
		// Webhook or client check already finished it.
		return nil
	}
	if p.PollURL == "" {
		w.log.Warn("pending payment has no poll url", "payment_id", paymentID)
		return river.JobCancel(errors.New("no poll url"))
	}

	status, err := w.poller.PollUntilTerminal(ctx, p.PollURL, w.interval, w.attempts)
	if err != nil {
		return err
	}

	switch status {
	case pesepay.StatusSuccess:
		return w.svc.Settle(ctx, paymentID)
	case pesepay.StatusFailed:
		return w.svc.Fail(ctx, paymentID)
	default:
		w.log.Info("payment still pending after poll budget, snoozing",
			"payment_id", paymentID, "snooze", w.snooze)
		return river.JobSnooze(w.snooze)
	}
}
