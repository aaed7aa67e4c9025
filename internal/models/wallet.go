package models

import (
	"time"

	"github.com/google/uuid"
)

// Token transaction types.
const (
	TxTypePurchase          = "purchase"
	TxTypeDeduction         = "deduction"
	TxTypeRefund            = "refund"
	TxTypeAdminGrant        = "admin_grant"
	TxTypeRegistrationBonus = "registration_bonus"
)

type Wallet struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Balance        int64     `json:"balance"`
	TotalPurchased int64     `json:"total_purchased"`
	TotalSpent     int64     `json:"total_spent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TokenTransaction is an immutable ledger entry. Amount is signed: credits
// positive, debits negative. BalanceAfter snapshots the wallet balance in the
// same commit, so replaying a wallet's history reproduces its balance.
type TokenTransaction struct {
	ID           uuid.UUID  `json:"id"`
	WalletID     uuid.UUID  `json:"wallet_id"`
	Type         string     `json:"type"`
	Amount       int64      `json:"amount"`
	BalanceAfter int64      `json:"balance_after"`
	Description  string     `json:"description"`
	ReferenceID  *uuid.UUID `json:"reference_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
