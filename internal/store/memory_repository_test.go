package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/domain"
)

func newUser(username, accountNumber string) *domain.User {
	return &domain.User{
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  "hash",
		AccountNumber: accountNumber,
		Balance:       decimal.NewFromInt(100),
	}
}

func TestMemoryRepositoryUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.CreateUser(ctx, newUser("alice", "RB0000000100"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected an assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected an assigned creation time")
	}

	t.Run("ids are monotonic", func(t *testing.T) {
		second, err := repo.CreateUser(ctx, newUser("bob", "RB0000000200"))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if second.ID <= created.ID {
			t.Errorf("expected id %d > %d", second.ID, created.ID)
		}
	})

	t.Run("duplicate username, email and account number rejected", func(t *testing.T) {
		dupes := []*domain.User{
			{Username: "alice", Email: "other@example.com", AccountNumber: "RB0000000900"},
			{Username: "other", Email: "alice@example.com", AccountNumber: "RB0000000901"},
			{Username: "other2", Email: "other2@example.com", AccountNumber: "RB0000000100"},
		}
		for _, d := range dupes {
			d.Balance = decimal.Zero
			if _, err := repo.CreateUser(ctx, d); err != domain.ErrDuplicateUser {
				t.Errorf("user %q: expected ErrDuplicateUser, got %v", d.Username, err)
			}
		}
	})

	t.Run("lookups", func(t *testing.T) {
		if _, err := repo.UserByUsername(ctx, "alice"); err != nil {
			t.Errorf("by username: %v", err)
		}
		if _, err := repo.UserByEmail(ctx, "alice@example.com"); err != nil {
			t.Errorf("by email: %v", err)
		}
		if _, err := repo.UserByAccountNumber(ctx, "RB0000000100"); err != nil {
			t.Errorf("by account number: %v", err)
		}
		if _, err := repo.UserByUsername(ctx, "nobody"); err != domain.ErrUserNotFound {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("returned records are copies", func(t *testing.T) {
		u, _ := repo.UserByID(ctx, created.ID)
		u.Balance = decimal.NewFromInt(999999)
		fresh, _ := repo.UserByID(ctx, created.ID)
		if fresh.Balance.Equal(decimal.NewFromInt(999999)) {
			t.Errorf("mutating a returned record leaked into the store")
		}
	})
}

func TestMemoryRepositoryDeleteRetainsHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	alice, _ := repo.CreateUser(ctx, newUser("alice", "RB0000000100"))
	if _, err := repo.CreateUser(ctx, newUser("bob", "RB0000000200")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	record := &domain.Transaction{
		ID:          uuid.New(),
		FromAccount: "RB0000000100",
		ToAccount:   "RB0000000200",
		Amount:      decimal.NewFromInt(10),
		Status:      domain.StatusCompleted,
		CreatedAt:   time.Now(),
	}
	if err := repo.AppendTransaction(ctx, record); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := repo.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.UserByID(ctx, alice.ID); err != domain.ErrUserNotFound {
		t.Fatalf("deleted user still resolvable: %v", err)
	}

	txs, err := repo.TransactionsByAccount(ctx, "RB0000000100")
	if err != nil {
		t.Fatalf("listing failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("history lost on delete: got %d entries", len(txs))
	}

	if err := repo.DeleteUser(ctx, alice.ID); err != domain.ErrUserNotFound {
		t.Errorf("double delete: expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryRepositoryPendingRegistrations(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	pending := &domain.PendingRegistration{
		Email:         "carol@example.com",
		Code:          "123456",
		Username:      "carol",
		PasswordHash:  "hash",
		AccountNumber: "RB0000000300",
		ExpiresAt:     time.Now().Add(10 * time.Minute),
	}
	if err := repo.CreatePendingRegistration(ctx, pending); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	t.Run("valid challenge resolves", func(t *testing.T) {
		got, err := repo.ValidPendingRegistration(ctx, "carol@example.com", "123456")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got.Username != "carol" || got.AccountNumber != "RB0000000300" {
			t.Errorf("provisional payload mismatch: %+v", got)
		}
	})

	t.Run("wrong code or email fails identically", func(t *testing.T) {
		if _, err := repo.ValidPendingRegistration(ctx, "carol@example.com", "999999"); err != domain.ErrInvalidOTP {
			t.Errorf("wrong code: expected ErrInvalidOTP, got %v", err)
		}
		if _, err := repo.ValidPendingRegistration(ctx, "mallory@example.com", "123456"); err != domain.ErrInvalidOTP {
			t.Errorf("wrong email: expected ErrInvalidOTP, got %v", err)
		}
	})

	t.Run("used challenge never resolves again", func(t *testing.T) {
		if err := repo.MarkRegistrationUsed(ctx, pending.ID); err != nil {
			t.Fatalf("mark used failed: %v", err)
		}
		if _, err := repo.ValidPendingRegistration(ctx, "carol@example.com", "123456"); err != domain.ErrInvalidOTP {
			t.Errorf("expected ErrInvalidOTP after use, got %v", err)
		}
	})

	t.Run("new challenge retires prior ones for the email", func(t *testing.T) {
		first := &domain.PendingRegistration{
			Email: "dave@example.com", Code: "111111",
			Username: "dave", PasswordHash: "h", AccountNumber: "RB0000000400",
			ExpiresAt: time.Now().Add(10 * time.Minute),
		}
		second := &domain.PendingRegistration{
			Email: "dave@example.com", Code: "222222",
			Username: "dave", PasswordHash: "h", AccountNumber: "RB0000000401",
			ExpiresAt: time.Now().Add(10 * time.Minute),
		}
		if err := repo.CreatePendingRegistration(ctx, first); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := repo.CreatePendingRegistration(ctx, second); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if _, err := repo.ValidPendingRegistration(ctx, "dave@example.com", "111111"); err != domain.ErrInvalidOTP {
			t.Errorf("retired challenge still valid: %v", err)
		}
		if _, err := repo.ValidPendingRegistration(ctx, "dave@example.com", "222222"); err != nil {
			t.Errorf("latest challenge should be valid: %v", err)
		}
	})

	t.Run("expired challenge never resolves", func(t *testing.T) {
		expired := &domain.PendingRegistration{
			Email: "erin@example.com", Code: "333333",
			Username: "erin", PasswordHash: "h", AccountNumber: "RB0000000500",
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		if err := repo.CreatePendingRegistration(ctx, expired); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if _, err := repo.ValidPendingRegistration(ctx, "erin@example.com", "333333"); err != domain.ErrInvalidOTP {
			t.Errorf("expected ErrInvalidOTP for expired challenge, got %v", err)
		}
	})
}

func TestMemoryRepositoryApplyTransfer(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	alice, _ := repo.CreateUser(ctx, newUser("alice", "RB0000000100"))
	bob, _ := repo.CreateUser(ctx, newUser("bob", "RB0000000200"))

	record := &domain.Transaction{
		ID:          uuid.New(),
		FromAccount: "RB0000000100",
		ToAccount:   "RB0000000200",
		Amount:      decimal.NewFromInt(30),
		Status:      domain.StatusCompleted,
		CreatedAt:   time.Now(),
	}
	err := repo.ApplyTransfer(ctx, Transfer{
		FromUserID:  alice.ID,
		ToUserID:    bob.ID,
		FromBalance: decimal.NewFromInt(70),
		ToBalance:   decimal.NewFromInt(130),
		Record:      record,
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	a, _ := repo.UserByID(ctx, alice.ID)
	b, _ := repo.UserByID(ctx, bob.ID)
	if !a.Balance.Equal(decimal.NewFromInt(70)) || !b.Balance.Equal(decimal.NewFromInt(130)) {
		t.Errorf("balances not applied: %s / %s", a.Balance, b.Balance)
	}

	txs, _ := repo.AllTransactions(ctx, 0)
	if len(txs) != 1 || txs[0].ID != record.ID {
		t.Errorf("transaction not appended")
	}
}
