package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/domain"
)

// PostgresRepository is the PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the required tables if they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            account_number TEXT NOT NULL UNIQUE,
            balance NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            from_account TEXT NOT NULL,
            to_account TEXT NOT NULL,
            amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS pending_registrations (
            id BIGSERIAL PRIMARY KEY,
            email TEXT NOT NULL,
            code TEXT NOT NULL,
            username TEXT NOT NULL,
            password_hash TEXT NOT NULL,
            account_number TEXT NOT NULL,
            expires_at TIMESTAMPTZ NOT NULL,
            used BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	return err
}

const userColumns = `id, username, email, password_hash, account_number, balance::text, is_admin, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var balance string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AccountNumber, &balance, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
        INSERT INTO users (username, email, password_hash, account_number, balance, is_admin)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	created := *user
	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AccountNumber,
		user.Balance.String(),
		user.IsAdmin,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateUser
		}
		log.Printf("Error inserting user into database: %v", err)
		return nil, err
	}
	return &created, nil
}

func (r *PostgresRepository) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresRepository) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *PostgresRepository) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *PostgresRepository) UserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE account_number = $1`, accountNumber))
}

func (r *PostgresRepository) AllUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET balance = $1 WHERE id = $2`, balance.String(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ApplyTransfer commits both balance writes and the ledger append in a
// single database transaction.
func (r *PostgresRepository) ApplyTransfer(ctx context.Context, transfer Transfer) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE users SET balance = $1 WHERE id = $2`,
		transfer.FromBalance.String(), transfer.FromUserID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET balance = $1 WHERE id = $2`,
		transfer.ToBalance.String(), transfer.ToUserID); err != nil {
		return err
	}

	rec := transfer.Record
	if _, err := tx.Exec(ctx, `
        INSERT INTO transactions (id, from_account, to_account, amount, description, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.FromAccount, rec.ToAccount, rec.Amount.String(), rec.Description, rec.Status, rec.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) AppendTransaction(ctx context.Context, record *domain.Transaction) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO transactions (id, from_account, to_account, amount, description, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.FromAccount, record.ToAccount, record.Amount.String(), record.Description, record.Status, record.CreatedAt,
	)
	return err
}

const transactionColumns = `id, from_account, to_account, amount::text, description, status, created_at`

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amount string
		if err := rows.Scan(&tx.ID, &tx.FromAccount, &tx.ToAccount, &amount, &tx.Description, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		tx.Amount = parsed
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) TransactionsByAccount(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+transactionColumns+` FROM transactions
        WHERE from_account = $1 OR to_account = $1
        ORDER BY created_at`, accountNumber)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *PostgresRepository) AllTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at`
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.db.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *PostgresRepository) CreatePendingRegistration(ctx context.Context, pending *domain.PendingRegistration) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// A fresh challenge retires every outstanding one for the same email.
	if _, err := tx.Exec(ctx, `UPDATE pending_registrations SET used = TRUE WHERE email = $1 AND used = FALSE`, pending.Email); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO pending_registrations (email, code, username, password_hash, account_number, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`,
		pending.Email, pending.Code, pending.Username, pending.PasswordHash, pending.AccountNumber, pending.ExpiresAt,
	).Scan(&pending.ID, &pending.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) ValidPendingRegistration(ctx context.Context, email, code string) (*domain.PendingRegistration, error) {
	var p domain.PendingRegistration
	err := r.db.QueryRow(ctx, `
        SELECT id, email, code, username, password_hash, account_number, expires_at, used, created_at
        FROM pending_registrations
        WHERE email = $1 AND code = $2 AND used = FALSE AND expires_at > NOW()
        ORDER BY created_at DESC LIMIT 1`, email, code,
	).Scan(&p.ID, &p.Email, &p.Code, &p.Username, &p.PasswordHash, &p.AccountNumber, &p.ExpiresAt, &p.Used, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) MarkRegistrationUsed(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE pending_registrations SET used = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidOTP
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
