/**
 * @description
 * This file contains the ledger: the only component allowed to mutate
 * account balances or append to the transaction log. All money-movement
 * invariants live here. Mutations on an account are serialized through
 * per-account mutexes acquired in ascending account-number order, so two
 * concurrent transfers can never double-spend a balance or deadlock on
 * each other.
 *
 * @dependencies
 * - github.com/google/uuid: For transaction IDs.
 * - github.com/shopspring/decimal: Exact decimal arithmetic; balances never
 *   drift through binary floating point.
 * - internal/store: The transactional persistence surface.
 */

package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/domain"
	"github.com/skrapar556-ux/royalebank/internal/store"
	"github.com/skrapar556-ux/royalebank/pkg/rabbitmq"
)

// DefaultDescription is recorded when a transfer carries no memo.
const DefaultDescription = "Transfer"

// Ledger owns balances and the append-only transaction log.
type Ledger struct {
	repo     store.Repository
	producer rabbitmq.Publisher

	muMap map[string]*sync.Mutex
	mapMu sync.Mutex
}

// New creates a Ledger over the given repository. The producer may be nil;
// events are then skipped.
func New(repo store.Repository, producer rabbitmq.Publisher) *Ledger {
	return &Ledger{
		repo:     repo,
		producer: producer,
		muMap:    make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) accountLock(accountNumber string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountNumber]; !exists {
		l.muMap[accountNumber] = &sync.Mutex{}
	}
	return l.muMap[accountNumber]
}

// lockPair acquires both account locks in ascending account-number order
// and returns the unlock function.
func (l *Ledger) lockPair(a, b string) func() {
	first, second := l.accountLock(a), l.accountLock(b)
	if a > b {
		first, second = second, first
	}
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

// Transfer atomically moves amount from one account to another and appends
// the completed transaction. Preconditions are checked in order: positive
// amount, distinct accounts, sender exists, sufficient balance, recipient
// exists. A failed precondition applies no mutation at all.
func (l *Ledger) Transfer(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if fromAccount == toAccount {
		return nil, domain.ErrSelfTransfer
	}

	unlock := l.lockPair(fromAccount, toAccount)
	defer unlock()

	sender, err := l.repo.UserByAccountNumber(ctx, fromAccount)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if sender.Balance.LessThan(amount) {
		return nil, domain.ErrInsufficientBalance
	}

	recipient, err := l.repo.UserByAccountNumber(ctx, toAccount)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, err
	}

	if description == "" {
		description = DefaultDescription
	}

	record := &domain.Transaction{
		ID:          uuid.New(),
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Description: description,
		Status:      domain.StatusCompleted,
		CreatedAt:   time.Now(),
	}

	transfer := store.Transfer{
		FromUserID:  sender.ID,
		ToUserID:    recipient.ID,
		FromBalance: sender.Balance.Sub(amount),
		ToBalance:   recipient.Balance.Add(amount),
		Record:      record,
	}
	if err := l.repo.ApplyTransfer(ctx, transfer); err != nil {
		return nil, err
	}

	l.publish(ctx, domain.RoutingKeyTransferDone, domain.TransferCompletedEvent{
		TransactionID: record.ID,
		FromAccount:   fromAccount,
		ToAccount:     toAccount,
		Amount:        amount,
		CompletedAt:   record.CreatedAt,
	})

	return record, nil
}

// AdjustBalance is the administrative override. It does not conserve total
// system balance, so every adjustment is recorded in the transaction log
// as an audit entry for the absolute delta.
func (l *Ledger) AdjustBalance(ctx context.Context, userID int64, newBalance decimal.Decimal) error {
	if newBalance.IsNegative() {
		return domain.ErrInvalidBalance
	}

	user, err := l.repo.UserByID(ctx, userID)
	if err != nil {
		return err
	}

	lock := l.accountLock(user.AccountNumber)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a concurrent transfer may have moved the
	// balance since the lookup.
	user, err = l.repo.UserByID(ctx, userID)
	if err != nil {
		return err
	}

	oldBalance := user.Balance
	if err := l.repo.UpdateBalance(ctx, userID, newBalance); err != nil {
		return err
	}

	delta := newBalance.Sub(oldBalance)
	if !delta.IsZero() {
		record := &domain.Transaction{
			ID:          uuid.New(),
			ToAccount:   user.AccountNumber,
			Amount:      delta.Abs(),
			Description: "Administrative balance adjustment",
			Status:      domain.StatusAdjustment,
			CreatedAt:   time.Now(),
		}
		if delta.IsNegative() {
			record.FromAccount, record.ToAccount = user.AccountNumber, ""
		}
		if err := l.repo.AppendTransaction(ctx, record); err != nil {
			// The balance write already committed; losing the audit entry
			// is reported, not rolled back.
			log.Printf("WARN: failed to record adjustment audit entry for user %d: %v", userID, err)
		}
	}

	l.publish(ctx, domain.RoutingKeyBalanceAdjusted, domain.BalanceAdjustedEvent{
		UserID:        userID,
		AccountNumber: user.AccountNumber,
		OldBalance:    oldBalance,
		NewBalance:    newBalance,
		AdjustedAt:    time.Now(),
	})
	return nil
}

// Balance returns the current balance of the given account.
func (l *Ledger) Balance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	user, err := l.repo.UserByAccountNumber(ctx, accountNumber)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return user.Balance, nil
}

// AccountByNumber resolves an account holder by account number.
func (l *Ledger) AccountByNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	return l.repo.UserByAccountNumber(ctx, accountNumber)
}

// TransactionsFor returns every transaction where the account is sender or
// recipient, newest first. The store keeps the canonical creation order.
func (l *Ledger) TransactionsFor(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	txs, err := l.repo.TransactionsByAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	reverse(txs)
	return txs, nil
}

// RecentTransactions returns the newest transactions across all accounts,
// capped at limit when positive.
func (l *Ledger) RecentTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	txs, err := l.repo.AllTransactions(ctx, 0)
	if err != nil {
		return nil, err
	}
	reverse(txs)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func reverse(txs []domain.Transaction) {
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
}

func (l *Ledger) publish(ctx context.Context, routingKey string, body interface{}) {
	if l.producer == nil {
		return
	}
	if err := l.producer.Publish(ctx, domain.EventsExchange, routingKey, body); err != nil {
		log.Printf("WARN: failed to publish %s event: %v", routingKey, err)
	}
}
