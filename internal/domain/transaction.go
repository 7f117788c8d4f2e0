package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses. Records are immutable once written, so a status is
// assigned exactly once.
const (
	// StatusCompleted marks a settled peer-to-peer transfer.
	StatusCompleted = "completed"
	// StatusAdjustment marks an administrative balance override. Adjustments
	// carry the absolute delta; the empty counterparty account number
	// denotes the system side.
	StatusAdjustment = "adjustment"
)

// Transaction is one immutable entry in the append-only ledger log.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}
