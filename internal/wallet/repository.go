package wallet

import (
	"context"
	"errors"

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

const walletColumns = `id, user_id, balance, total_purchased, total_spent, created_at, updated_at`

// GetOrCreate returns the user's wallet, inserting a zero-balance row on
// first touch. Safe under concurrent callers: the insert is ON CONFLICT DO NOTHING.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wallets (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID)
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT `+walletColumns+` FROM wallets WHERE user_id = $1
	`, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalPurchased, &w.TotalSpent, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateTx inserts a zero-balance wallet inside the caller's transaction.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.QueryRow(ctx, `
		INSERT INTO wallets (id, user_id) VALUES ($1, $2)
		RETURNING `+walletColumns+`
	`, uuid.New(), userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalPurchased, &w.TotalSpent, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreditTx increases balance and total_purchased. Returns ErrWalletNotFound
// when the user has no wallet row yet.
func (r *Repository) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $1, total_purchased = total_purchased + $1, updated_at = now()
		WHERE user_id = $2
		RETURNING `+walletColumns+`
	`, amount, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalPurchased, &w.TotalSpent, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// DebitTx decreases balance and increases total_spent. The balance check and
// the write are one atomic conditional UPDATE: the row only changes when
// balance >= amount, so concurrent debits on the same wallet serialize on the
// row and can never drive the balance negative. A user without a wallet row
// debits like an empty one.
func (r *Repository) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance - $1, total_spent = total_spent + $1, updated_at = now()
		WHERE user_id = $2 AND balance >= $1
		RETURNING `+walletColumns+`
	`, amount, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.TotalPurchased, &w.TotalSpent, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *models.TokenTransaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO token_transactions (id, wallet_id, type, amount, balance_after, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, t.ID, t.WalletID, t.Type, t.Amount, t.BalanceAfter, t.Description, t.ReferenceID).Scan(&t.CreatedAt)
}

// ListTransactions returns a user's ledger entries, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.TokenTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.wallet_id, t.type, t.amount, t.balance_after, t.description, t.reference_id, t.created_at
		FROM token_transactions t
		INNER JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.TokenTransaction
	for rows.Next() {
		var t models.TokenTransaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter, &t.Description, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
