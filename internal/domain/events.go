package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Exchange and routing keys for events published by the service.
const (
	EventsExchange = "royalebank.events"

	RoutingKeyOTPRequested    = "auth.otp_requested"
	RoutingKeyUserRegistered  = "user.registered"
	RoutingKeyUserCreated     = "user.created"
	RoutingKeyUserDeleted     = "user.deleted"
	RoutingKeyTransferDone    = "transfer.completed"
	RoutingKeyBalanceAdjusted = "balance.adjusted"
)

// OTPRequestedEvent is published when a registration challenge is issued.
// The code itself never leaves the service; downstream consumers only learn
// that a dispatch happened.
type OTPRequestedEvent struct {
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}

// UserLifecycleEvent covers registration, admin creation and deletion.
type UserLifecycleEvent struct {
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	AccountNumber string    `json:"account_number"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// TransferCompletedEvent is published after a transfer commits.
type TransferCompletedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	FromAccount   string          `json:"from_account"`
	ToAccount     string          `json:"to_account"`
	Amount        decimal.Decimal `json:"amount"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// BalanceAdjustedEvent is published when an admin overrides a balance.
type BalanceAdjustedEvent struct {
	UserID        int64           `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	OldBalance    decimal.Decimal `json:"old_balance"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	AdjustedAt    time.Time       `json:"adjusted_at"`
}
