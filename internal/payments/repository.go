package payments

import (
	"context"
	"errors"
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

const paymentColumns = `id, user_id, amount_usd_cents, tokens_purchased, method, phone, status,
	description, gateway_ref, poll_url, redirect_url, created_at, updated_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.AmountUSDCents, &p.TokensPurchased, &p.Method, &p.Phone, &p.Status,
		&p.Description, &p.GatewayRef, &p.PollURL, &p.RedirectURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Insert(ctx context.Context, p *models.Payment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, user_id, amount_usd_cents, tokens_purchased, method, phone, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, p.ID, p.UserID, p.AmountUSDCents, p.TokensPurchased, p.Method, p.Phone, p.Status, p.Description)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
}

// FindByReference resolves a webhook reference, which is either the gateway's
// reference number or our own payment id echoed back as merchant reference.
func (r *Repository) FindByReference(ctx context.Context, ref string) (*models.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE gateway_ref = $1 OR id::text = $1
	`, ref))
}

// SetGatewayRefs stores the provider's handles once initiation succeeds.
func (r *Repository) SetGatewayRefs(ctx context.Context, paymentID uuid.UUID, gatewayRef, pollURL, redirectURL string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET gateway_ref = $2, poll_url = $3, redirect_url = $4, updated_at = now()
		WHERE id = $1
	`, paymentID, gatewayRef, pollURL, redirectURL)
	return err
}

// SettleCompletedTx marks a pending payment completed and reports who to
// credit. The conditional status check makes settlement idempotent: a payment
// already in a terminal state returns moved=false and must not be credited
// again.
func (r *Repository) SettleCompletedTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) (userID uuid.UUID, tokens int64, moved bool, err error) {
	row := tx.QueryRow(ctx, `
		UPDATE payments SET status = 'completed', updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING user_id, tokens_purchased
	`, paymentID)
	if err := row.Scan(&userID, &tokens); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, 0, false, nil
		}
		return uuid.Nil, 0, false, err
	}
	return userID, tokens, true, nil
}

// MarkFailed moves a pending payment to failed. Terminal payments are left
// untouched.
func (r *Repository) MarkFailed(ctx context.Context, paymentID uuid.UUID) (userID uuid.UUID, moved bool, err error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE payments SET status = 'failed', updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING user_id
	`, paymentID)
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

// MarkCancelled closes a pending payment the gateway never acknowledged.
func (r *Repository) MarkCancelled(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, paymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CancelPendingBefore sweeps payments stuck in pending past the cutoff.
func (r *Repository) CancelPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'cancelled', updated_at = now()
		WHERE status = 'pending' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListForUser returns the user's purchase history, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UserPhone looks up the payer's registered number for seamless charges.
func (r *Repository) UserPhone(ctx context.Context, userID uuid.UUID) (string, error) {
	var phone string
	row := r.pool.QueryRow(ctx, `SELECT phone FROM users WHERE id = $1`, userID)
	if err := row.Scan(&phone); err != nil {
		return "", err
	}
	return phone, nil
}
