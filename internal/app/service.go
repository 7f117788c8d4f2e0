/**
 * @description
 * This file contains the core business logic for registration, login and
 * administration. The `Service` struct orchestrates the repository, the
 * token authority, the ledger, the OTP mailer and the event producer.
 *
 * Key features:
 * - Registration is a two-step challenge flow: an OTP goes out first and
 *   the account only materializes after the code verifies.
 * - Login and OTP requests can be rate limited through Redis.
 * - Administrative operations (user CRUD, balance override) live here so
 *   handlers stay thin.
 *
 * @dependencies
 * - internal/auth, internal/domain, internal/ledger, internal/store
 * - pkg/mailer, pkg/rabbitmq
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/auth"
	"github.com/skrapar556-ux/royalebank/internal/domain"
	"github.com/skrapar556-ux/royalebank/internal/ledger"
	"github.com/skrapar556-ux/royalebank/internal/store"
	"github.com/skrapar556-ux/royalebank/pkg/mailer"
	"github.com/skrapar556-ux/royalebank/pkg/rabbitmq"
)

const (
	// Attempt budgets per identity per window. Only enforced when a rate
	// limiter is configured.
	loginAttemptLimit  = 10
	otpRequestLimit    = 5
	rateLimitWindow    = 15 * time.Minute
	adminTxListDefault = 100
)

// Service provides the account, session and administration use cases.
type Service struct {
	repo     store.Repository
	ledger   *ledger.Ledger
	tokens   *auth.TokenAuthority
	mailer   mailer.Mailer
	producer rabbitmq.Publisher
	limiter  *RedisRateLimiter
}

// NewService creates a new service instance. producer and limiter may be
// nil; the corresponding features are then skipped.
func NewService(repo store.Repository, l *ledger.Ledger, tokens *auth.TokenAuthority, m mailer.Mailer, producer rabbitmq.Publisher, limiter *RedisRateLimiter) *Service {
	return &Service{
		repo:     repo,
		ledger:   l,
		tokens:   tokens,
		mailer:   m,
		producer: producer,
		limiter:  limiter,
	}
}

// Ledger exposes the ledger for transfer and read operations.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

// RequestRegistration starts the registration challenge flow: it validates
// the input, rejects identities that already exist, stores a pending
// registration with a fresh code, and dispatches the code by email. Any
// previously outstanding challenge for the email is invalidated.
func (s *Service) RequestRegistration(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return domain.ErrMissingFields
	}
	if len(password) < 6 {
		return domain.ErrPasswordTooShort
	}

	if err := s.allow(ctx, "otp", email, otpRequestLimit); err != nil {
		return err
	}

	// Conflict is reported before any OTP goes out.
	if _, err := s.repo.UserByUsername(ctx, username); err == nil {
		return domain.ErrDuplicateUser
	} else if err != domain.ErrUserNotFound {
		return err
	}
	if _, err := s.repo.UserByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateUser
	} else if err != domain.ErrUserNotFound {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	pending := &domain.PendingRegistration{
		Email:         email,
		Code:          domain.GenerateOTPCode(),
		Username:      username,
		PasswordHash:  hash,
		AccountNumber: domain.GenerateAccountNumber(),
		ExpiresAt:     time.Now().Add(domain.OTPValidity),
	}
	if err := s.repo.CreatePendingRegistration(ctx, pending); err != nil {
		return err
	}

	// A failed dispatch aborts registration; the stored challenge is
	// harmless since the caller never learns the code.
	if err := s.mailer.SendOTP(ctx, email, pending.Code); err != nil {
		log.Printf("Failed to dispatch OTP email to %s: %v", email, err)
		return fmt.Errorf("sending OTP email: %w", err)
	}

	s.publish(ctx, domain.RoutingKeyOTPRequested, domain.OTPRequestedEvent{
		Email:       email,
		RequestedAt: time.Now(),
	})
	return nil
}

// VerifyRegistration redeems a registration challenge. All four conditions
// (email, code, unused, unexpired) are checked in one lookup; any mismatch
// yields the same generic error. On success the account is materialized,
// the challenge is terminally consumed, and a session token is issued.
func (s *Service) VerifyRegistration(ctx context.Context, email, code string) (*domain.User, string, error) {
	if email == "" || code == "" {
		return nil, "", domain.ErrMissingFields
	}

	pending, err := s.repo.ValidPendingRegistration(ctx, email, code)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repo.CreateUser(ctx, &domain.User{
		Username:      pending.Username,
		Email:         pending.Email,
		PasswordHash:  pending.PasswordHash,
		AccountNumber: pending.AccountNumber,
		Balance:       decimal.Zero,
		IsAdmin:       false,
	})
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.MarkRegistrationUsed(ctx, pending.ID); err != nil {
		log.Printf("WARN: failed to mark challenge %d used: %v", pending.ID, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email, user.AccountNumber, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}

	s.publish(ctx, domain.RoutingKeyUserRegistered, domain.UserLifecycleEvent{
		UserID:        user.ID,
		Username:      user.Username,
		AccountNumber: user.AccountNumber,
		OccurredAt:    time.Now(),
	})
	return user, token, nil
}

// Login authenticates by username or email. Unknown identity and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*domain.User, string, error) {
	if usernameOrEmail == "" || password == "" {
		return nil, "", domain.ErrMissingFields
	}

	if err := s.allow(ctx, "login", usernameOrEmail, loginAttemptLimit); err != nil {
		return nil, "", err
	}

	user, err := s.repo.UserByUsername(ctx, usernameOrEmail)
	if err == domain.ErrUserNotFound {
		user, err = s.repo.UserByEmail(ctx, usernameOrEmail)
	}
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email, user.AccountNumber, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("issuing session token: %w", err)
	}
	return user, token, nil
}

// UserByID fetches a user record, e.g. for the balance endpoint.
func (s *Service) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.UserByID(ctx, id)
}

// ListUsers returns every account, sanitized for display.
func (s *Service) ListUsers(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.repo.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// AdminCreateUser creates an account directly, skipping the OTP flow. The
// admin chooses the opening balance and role.
func (s *Service) AdminCreateUser(ctx context.Context, username, email, password string, balance decimal.Decimal, isAdmin bool) (*domain.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}
	if balance.IsNegative() {
		return nil, domain.ErrInvalidBalance
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, &domain.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		AccountNumber: domain.GenerateAccountNumber(),
		Balance:       balance,
		IsAdmin:       isAdmin,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.RoutingKeyUserCreated, domain.UserLifecycleEvent{
		UserID:        user.ID,
		Username:      user.Username,
		AccountNumber: user.AccountNumber,
		OccurredAt:    time.Now(),
	})
	return user, nil
}

// AdminSetBalance overrides a user's balance through the ledger, which
// records the audit adjustment.
func (s *Service) AdminSetBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	return s.ledger.AdjustBalance(ctx, userID, balance)
}

// AdminDeleteUser removes an account. The acting admin cannot delete
// itself, and the transaction log keeps every entry that referenced the
// deleted account's number.
func (s *Service) AdminDeleteUser(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return domain.ErrSelfDelete
	}

	target, err := s.repo.UserByID(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, targetID); err != nil {
		return err
	}

	s.publish(ctx, domain.RoutingKeyUserDeleted, domain.UserLifecycleEvent{
		UserID:        target.ID,
		Username:      target.Username,
		AccountNumber: target.AccountNumber,
		OccurredAt:    time.Now(),
	})
	return nil
}

// AdminListTransactions returns the most recent ledger entries across all
// accounts.
func (s *Service) AdminListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.ledger.RecentTransactions(ctx, adminTxListDefault)
}

func (s *Service) allow(ctx context.Context, scope, subject string, limit int) error {
	ok, err := s.limiter.Allow(ctx, scope, subject, limit, rateLimitWindow)
	if err != nil {
		// A broken limiter must not take authentication down with it.
		log.Printf("WARN: rate limiter unavailable for %s/%s: %v", scope, subject, err)
		return nil
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, domain.EventsExchange, routingKey, body); err != nil {
		log.Printf("WARN: failed to publish %s event: %v", routingKey, err)
	}
}
