/**
 * @description
 * This file defines the `Repository` interface: the contract for every data
 * access operation the service needs. The business logic only ever sees
 * this interface, so the backing store can be the in-memory default or
 * PostgreSQL without any caller changing.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/domain"
)

// Repository defines the set of methods for interacting with the store.
// Lookup methods return domain.ErrUserNotFound when no record matches.
type Repository interface {
	// User lifecycle
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error)
	AllUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id int64) error

	// Balance mutation. UpdateBalance is the administrative path;
	// ApplyTransfer commits both balance writes and the ledger append as
	// one unit so no reader can observe a half-applied transfer.
	UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error
	ApplyTransfer(ctx context.Context, transfer Transfer) error

	// Ledger log. AppendTransaction records adjustment entries;
	// transaction records are never updated or deleted.
	AppendTransaction(ctx context.Context, tx *domain.Transaction) error
	TransactionsByAccount(ctx context.Context, accountNumber string) ([]domain.Transaction, error)
	AllTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)

	// Registration challenges. Creating a challenge invalidates any prior
	// unused challenge for the same email.
	CreatePendingRegistration(ctx context.Context, pending *domain.PendingRegistration) error
	ValidPendingRegistration(ctx context.Context, email, code string) (*domain.PendingRegistration, error)
	MarkRegistrationUsed(ctx context.Context, id int64) error
}

// Transfer carries the fully validated outcome of a transfer for the store
// to commit atomically. Balances are the post-transfer values computed by
// the ledger under its account locks.
type Transfer struct {
	FromUserID  int64
	ToUserID    int64
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
	Record      *domain.Transaction
}
