package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tidwall/gjson"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/metrics"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/pesepay"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrNotOwner         = errors.New("payment belongs to another user")
	ErrGatewayDisabled  = errors.New("payment gateway is not configured")
	ErrBadAmount        = errors.New("token amount must be positive")
	ErrMissingReference = errors.New("webhook payload has no reference")
)

const (
	defaultPage = 20
	maxPage     = 100
)

// Store is the payment persistence surface.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Insert(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	FindByReference(ctx context.Context, ref string) (*models.Payment, error)
	SetGatewayRefs(ctx context.Context, paymentID uuid.UUID, gatewayRef, pollURL, redirectURL string) error
	SettleCompletedTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (uuid.UUID, int64, bool, error)
	MarkFailed(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, bool, error)
	MarkCancelled(ctx context.Context, paymentID uuid.UUID) (bool, error)
	CancelPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Payment, error)
	UserPhone(ctx context.Context, userID uuid.UUID) (string, error)
}

// Gateway is the slice of the Pesepay client the service drives.
type Gateway interface {
	Configured() bool
	InitiateSeamless(ctx context.Context, in pesepay.InitiateRequest) (*pesepay.InitiateResult, error)
	CheckStatus(ctx context.Context, pollURL string) (pesepay.Status, error)
}

// Wallet credits the purchase inside the settlement transaction.
type Wallet interface {
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
}

// Notifier tells the payer how their purchase ended, best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID)
}

// EnqueuePoll schedules the background settlement poller for a payment.
// Wired to the job queue at startup.
type EnqueuePoll func(ctx context.Context, paymentID uuid.UUID) error

// PurchaseInput carries one token purchase request.
type PurchaseInput struct {
	Tokens int64
	Method string
	Phone  string
}

type Service interface {
	Purchase(ctx context.Context, userID uuid.UUID, in PurchaseInput) (*models.Payment, error)
	Get(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	CheckAndSettle(ctx context.Context, paymentID, actorID uuid.UUID, role string) (*models.Payment, error)
	HandleWebhook(ctx context.Context, body []byte) error
	Settle(ctx context.Context, paymentID uuid.UUID) error
	Fail(ctx context.Context, paymentID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Payment, error)
	CancelStale(ctx context.Context) (int64, error)
}

type service struct {
	repo          Store
	gateway       Gateway
	wallet        Wallet
	notes         Notifier
	enqueue       EnqueuePoll
	priceCents    int64
	pendingMaxAge time.Duration
	log           *slog.Logger
}

var _ Service = (*service)(nil)

// NewService creates a payments service. priceCents is the USD price of one
// token in cents; pendingMaxAge bounds how long a payment may sit pending
// before the sweep cancels it.
func NewService(repo Store, gateway Gateway, wallet Wallet, notes Notifier, enqueue EnqueuePoll, priceCents int64, pendingMaxAge time.Duration, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{
		repo:          repo,
		gateway:       gateway,
		wallet:        wallet,
		notes:         notes,
		enqueue:       enqueue,
		priceCents:    priceCents,
		pendingMaxAge: pendingMaxAge,
		log:           log,
	}
}

// Purchase records a pending payment and asks the gateway to charge the
// payer. The ledger is only touched later, when settlement confirms the money
// actually moved.
func (s *service) Purchase(ctx context.Context, userID uuid.UUID, in PurchaseInput) (*models.Payment, error) {
	if in.Tokens <= 0 {
		return nil, ErrBadAmount
	}
	if !s.gateway.Configured() {
		return nil, ErrGatewayDisabled
	}

	phone := in.Phone
	if phone == "" {
		registered, err := s.repo.UserPhone(ctx, userID)
		if err != nil {
			s.log.Warn("payer phone lookup failed", "user_id", userID, "error", err)
		}
		phone = registered
	}

	p := &models.Payment{
		ID:              uuid.New(),
		UserID:          userID,
		AmountUSDCents:  in.Tokens * s.priceCents,
		TokensPurchased: in.Tokens,
		Method:          strings.ToLower(in.Method),
		Phone:           phone,
		Status:          models.PaymentStatusPending,
		Description:     fmt.Sprintf("Purchase %d tokens", in.Tokens),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	res, err := s.gateway.InitiateSeamless(ctx, pesepay.InitiateRequest{
		AmountUSD: float64(p.AmountUSDCents) / 100,
		Currency:  "USD",
		Reason:    fmt.Sprintf("MuseyamwaLabourConnect: %d tokens", in.Tokens),
		Method:    in.Method,
		Phone:     phone,
		Reference: p.ID.String(),
	})
	if err != nil {
		// The gateway never acknowledged this charge; the row must not sit
		// pending until the sweep finds it.
		if _, cErr := s.repo.MarkCancelled(ctx, p.ID); cErr != nil {
			s.log.Error("cancel unacknowledged payment failed", "payment_id", p.ID, "error", cErr)
		}
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	if err := s.repo.SetGatewayRefs(ctx, p.ID, res.Reference, res.PollURL, res.RedirectURL); err != nil {
		return nil, fmt.Errorf("store gateway refs: %w", err)
	}
	p.GatewayRef, p.PollURL, p.RedirectURL = res.Reference, res.PollURL, res.RedirectURL

	s.log.Info("payment initiated", "payment_id", p.ID, "user_id", userID,
		"tokens", in.Tokens, "method", p.Method, "gateway_ref", res.Reference)

	switch res.Status {
	case pesepay.StatusSuccess:
		if err := s.Settle(ctx, p.ID); err != nil {
			return nil, err
		}
	case pesepay.StatusFailed:
		if err := s.Fail(ctx, p.ID); err != nil {
			return nil, err
		}
	default:
		if s.enqueue != nil {
			if err := s.enqueue(ctx, p.ID); err != nil {
				// The webhook, the client status check, and the stale sweep
				// can all still finish this payment.
				s.log.Warn("enqueue settlement poll failed", "payment_id", p.ID, "error", err)
			}
		}
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *service) Get(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	p, err := s.repo.GetByID(ctx, paymentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// CheckAndSettle returns the payment, first making one synchronous poll when
// it is still pending. Poll failures are logged and the stored state returned;
// the background poller will come back to it.
func (s *service) CheckAndSettle(ctx context.Context, paymentID, actorID uuid.UUID, role string) (*models.Payment, error) {
	p, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID && role != models.RoleAdmin {
		return nil, ErrNotOwner
	}
	if p.Status != models.PaymentStatusPending || p.PollURL == "" {
		return p, nil
	}

	status, err := s.gateway.CheckStatus(ctx, p.PollURL)
	if err != nil {
		s.log.Warn("payment status check failed", "payment_id", p.ID, "error", err)
		return p, nil
	}
	switch status {
	case pesepay.StatusSuccess:
		if err := s.Settle(ctx, p.ID); err != nil {
			return nil, err
		}
	case pesepay.StatusFailed:
		if err := s.Fail(ctx, p.ID); err != nil {
			return nil, err
		}
	default:
		return p, nil
	}
	return s.Get(ctx, paymentID)
}

// HandleWebhook applies a gateway result callback. Unknown and still-pending
// statuses are ignored; settlement and failure both go through the idempotent
// paths, so replayed webhooks are harmless.
func (s *service) HandleWebhook(ctx context.Context, body []byte) error {
	ref := gjson.GetBytes(body, "referenceNumber").String()
	if ref == "" {
		ref = gjson.GetBytes(body, "merchantReference").String()
	}
	if ref == "" {
		return ErrMissingReference
	}

	p, err := s.repo.FindByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("find payment: %w", err)
	}

	verdict := pesepay.MapStatus(gjson.GetBytes(body, "transactionStatus").String())
	s.log.Info("payment webhook", "payment_id", p.ID, "reference", ref, "verdict", string(verdict))

	switch verdict {
	case pesepay.StatusSuccess:
		return s.Settle(ctx, p.ID)
	case pesepay.StatusFailed:
		return s.Fail(ctx, p.ID)
	default:
		return nil
	}
}

// Settle credits the purchased tokens exactly once. The conditional status
// flip and the ledger credit share one transaction; a payment already settled
// by another path is a silent no-op.
func (s *service) Settle(ctx context.Context, paymentID uuid.UUID) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	userID, tokens, moved, err := s.repo.SettleCompletedTx(ctx, tx, paymentID)
	if err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}
	if !moved {
		s.log.Debug("payment already terminal, settlement skipped", "payment_id", paymentID)
		return nil
	}

	if _, err := s.wallet.CreditTx(ctx, tx, userID, tokens, models.TxTypePurchase,
		fmt.Sprintf("Purchased %d tokens", tokens), &paymentID); err != nil {
		return fmt.Errorf("credit purchase: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordPaymentSettled(models.PaymentStatusCompleted)
	s.log.Info("payment settled", "payment_id", paymentID, "user_id", userID, "tokens", tokens)
	s.notes.Notify(ctx, userID, models.NotificationPayment, "Tokens purchased!",
		fmt.Sprintf("%d tokens added to your wallet.", tokens), &paymentID)
	return nil
}

// Fail marks a pending payment failed and tells the payer. Already-terminal
// payments are left alone.
func (s *service) Fail(ctx context.Context, paymentID uuid.UUID) error {
	userID, moved, err := s.repo.MarkFailed(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if !moved {
		return nil
	}

	metrics.RecordPaymentSettled(models.PaymentStatusFailed)
	s.log.Info("payment failed", "payment_id", paymentID, "user_id", userID)
	s.notes.Notify(ctx, userID, models.NotificationPayment, "Payment failed",
		"Your payment was not completed. No tokens were charged.", &paymentID)
	return nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
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

// CancelStale sweeps payments stuck in pending past the configured age.
// Run periodically.
func (s *service) CancelStale(ctx context.Context) (int64, error) {
	n, err := s.repo.CancelPendingBefore(ctx, time.Now().Add(-s.pendingMaxAge))
	if err != nil {
		return 0, fmt.Errorf("cancel stale payments: %w", err)
	}
	if n > 0 {
		s.log.Info("cancelled stale pending payments", "count", n)
	}
	return n, nil
}
