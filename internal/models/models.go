package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order statuses. Orders start open and transition to filled or cancelled;
// there is no transition back to open.
const (
	OrderStatusOpen      = "open"
	OrderStatusFilled    = "filled"
	OrderStatusCancelled = "cancelled"
)

// User represents a registered user. The password hash is internal state and
// must never be serialized outward.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Balance is a per-user, per-asset ledger row. Total and Reserved are exact
// decimal amounts; reserved must never exceed total.
type Balance struct {
	ID        uuid.UUID       `json:"id"`
	Asset     string          `json:"asset"`
	Total     decimal.Decimal `json:"total"`
	Reserved  decimal.Decimal `json:"reserved"`
	UserID    uuid.UUID       `json:"user_id"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Order represents a user's buy or sell intent.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Qty       decimal.Decimal `json:"qty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"` // Used for time priority
}
