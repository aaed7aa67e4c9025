package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/metrics"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// ErrInsufficientFunds is returned when a debit would take the balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrWalletNotFound is returned by store operations that require an existing wallet row.
var ErrWalletNotFound = errors.New("wallet not found")

const (
	defaultTransactionPage = 50
	maxTransactionPage     = 200
)

// Store is the persistence surface the ledger needs. *Repository implements it.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CreateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Wallet, error)
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) (*models.Wallet, error)
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) (*models.Wallet, error)
	InsertTransactionTx(ctx context.Context, tx pgx.Tx, t *models.TokenTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.TokenTransaction, error)
}

// Service is the token ledger. Every balance mutation commits together with
// its transaction record; the Tx variants run inside the caller's transaction
// so domain writes (job insert, offer insert) and the debit share one unit.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CreateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
	Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.TokenTransaction, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

var _ Service = (*service)(nil)

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.store.GetOrCreate(ctx, userID)
}

// CreateTx inserts a zero-balance wallet inside the caller's transaction, so
// registration can create the wallet and land the signup bonus in one commit.
func (s *service) CreateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Wallet, error) {
	return s.store.CreateTx(ctx, tx, userID)
}

func (s *service) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.CreditTx(ctx, tx, userID, amount, txType, description, referenceID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return w, nil
}

func (s *service) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, errors.New("credit amount must be positive")
	}
	w, err := s.store.CreditTx(ctx, tx, userID, amount)
	if errors.Is(err, ErrWalletNotFound) {
		// Wallets are created lazily on first use.
		if _, err := s.store.CreateTx(ctx, tx, userID); err != nil {
			return nil, err
		}
		w, err = s.store.CreditTx(ctx, tx, userID, amount)
	}
	if err != nil {
		return nil, err
	}
	entry := &models.TokenTransaction{
		ID:           uuid.New(),
		WalletID:     w.ID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: w.Balance,
		Description:  description,
		ReferenceID:  referenceID,
	}
	if err := s.store.InsertTransactionTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	metrics.RecordCredit(txType)
	return w, nil
}

func (s *service) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.DebitTx(ctx, tx, userID, amount, txType, description, referenceID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return w, nil
}

func (s *service) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, errors.New("debit amount must be positive")
	}
	w, err := s.store.DebitTx(ctx, tx, userID, amount)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			metrics.RecordInsufficientFunds()
		}
		return nil, err
	}
	entry := &models.TokenTransaction{
		ID:           uuid.New(),
		WalletID:     w.ID,
		Type:         txType,
		Amount:       -amount,
		BalanceAfter: w.Balance,
		Description:  description,
		ReferenceID:  referenceID,
	}
	if err := s.store.InsertTransactionTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	metrics.RecordDebit(txType)
	return w, nil
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.TokenTransaction, error) {
	if limit <= 0 || limit > maxTransactionPage {
		limit = defaultTransactionPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListTransactions(ctx, userID, limit, offset)
}
