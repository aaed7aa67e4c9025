package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses. A payment leaves pending exactly once.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment methods accepted by the gateway.
const (
	PaymentMethodEcocash    = "ecocash"
	PaymentMethodInnbucks   = "innbucks"
	PaymentMethodVisa       = "visa"
	PaymentMethodMastercard = "mastercard"
)

type Payment struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	AmountUSDCents  int64     `json:"amount_usd_cents"`
	TokensPurchased int64     `json:"tokens_purchased"`
	Method          string    `json:"method"`
	Phone           string    `json:"phone,omitempty"`
	Status          string    `json:"status"`
	Description     string    `json:"description,omitempty"`
	GatewayRef      string    `json:"gateway_ref,omitempty"`
	PollURL         string    `json:"-"`
	RedirectURL     string    `json:"redirect_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
