package store

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/auth"
	"github.com/skrapar556-ux/royalebank/internal/domain"
)

// MemoryRepository is the in-process, non-durable implementation of
// Repository. All state lives behind a single mutex; returned records are
// copies so callers can never mutate internal state.
type MemoryRepository struct {
	mu sync.Mutex

	users        map[int64]*domain.User
	pending      []*domain.PendingRegistration
	transactions []domain.Transaction

	userIDCounter    int64
	pendingIDCounter int64
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[int64]*domain.User),
	}
}

// SeedDefaultAdmin installs the bootstrap administrator account if no user
// with that username exists yet.
func (m *MemoryRepository) SeedDefaultAdmin(username, password, email string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return nil
		}
	}

	m.userIDCounter++
	m.users[m.userIDCounter] = &domain.User{
		ID:            m.userIDCounter,
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		AccountNumber: "RB00000001",
		Balance:       decimal.NewFromInt(10000),
		IsAdmin:       true,
		CreatedAt:     time.Now(),
	}
	log.Printf("Seeded default admin account %q", username)
	return nil
}

func (m *MemoryRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email ||
			existing.AccountNumber == user.AccountNumber {
			return nil, domain.ErrDuplicateUser
		}
	}

	m.userIDCounter++
	created := *user
	created.ID = m.userIDCounter
	created.CreatedAt = time.Now()
	m.users[created.ID] = &created

	out := created
	return &out, nil
}

func (m *MemoryRepository) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MemoryRepository) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.findUser(func(u *domain.User) bool { return u.Username == username })
}

func (m *MemoryRepository) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findUser(func(u *domain.User) bool { return u.Email == email })
}

func (m *MemoryRepository) UserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	return m.findUser(func(u *domain.User) bool { return u.AccountNumber == accountNumber })
}

func (m *MemoryRepository) findUser(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MemoryRepository) AllUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MemoryRepository) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	// The transaction log is immutable history: entries referencing the
	// deleted account's number stay retrievable.
	delete(m.users, id)
	return nil
}

func (m *MemoryRepository) UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Balance = balance
	return nil
}

func (m *MemoryRepository) ApplyTransfer(ctx context.Context, transfer Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from, ok := m.users[transfer.FromUserID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	to, ok := m.users[transfer.ToUserID]
	if !ok {
		return domain.ErrRecipientNotFound
	}

	// Debit, credit and log append commit inside one critical section.
	from.Balance = transfer.FromBalance
	to.Balance = transfer.ToBalance
	m.transactions = append(m.transactions, *transfer.Record)
	return nil
}

func (m *MemoryRepository) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transactions = append(m.transactions, *tx)
	return nil
}

func (m *MemoryRepository) TransactionsByAccount(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.Transaction
	for _, tx := range m.transactions {
		if tx.FromAccount == accountNumber || tx.ToAccount == accountNumber {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (m *MemoryRepository) AllTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.transactions)
	if limit > 0 && limit < n {
		n = limit
	}
	copied := make([]domain.Transaction, n)
	copy(copied, m.transactions[:n])
	return copied, nil
}

func (m *MemoryRepository) CreatePendingRegistration(ctx context.Context, pending *domain.PendingRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Latest-wins: a fresh challenge retires every outstanding one for the
	// same email.
	for _, p := range m.pending {
		if p.Email == pending.Email && !p.Used {
			p.Used = true
		}
	}

	m.pendingIDCounter++
	stored := *pending
	stored.ID = m.pendingIDCounter
	stored.CreatedAt = time.Now()
	m.pending = append(m.pending, &stored)

	pending.ID = stored.ID
	pending.CreatedAt = stored.CreatedAt
	return nil
}

func (m *MemoryRepository) ValidPendingRegistration(ctx context.Context, email, code string) (*domain.PendingRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, p := range m.pending {
		if p.Email == email && p.Code == code && p.Valid(now) {
			out := *p
			return &out, nil
		}
	}
	return nil, domain.ErrInvalidOTP
}

func (m *MemoryRepository) MarkRegistrationUsed(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pending {
		if p.ID == id {
			p.Used = true
			return nil
		}
	}
	return domain.ErrInvalidOTP
}

var _ Repository = (*MemoryRepository)(nil)
