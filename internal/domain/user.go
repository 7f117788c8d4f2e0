package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account holder. The account number is the externally facing
// identifier used for transfers; ID is the internal primary key.
type User struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	IsAdmin       bool            `json:"is_admin"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PublicUser is the client-facing shape of a user record, stripped of the
// credential hash and with the casing the dashboard expects.
type PublicUser struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	IsAdmin       bool            `json:"isAdmin"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Public returns the sanitized view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		AccountNumber: u.AccountNumber,
		Balance:       u.Balance,
		IsAdmin:       u.IsAdmin,
		CreatedAt:     u.CreatedAt,
	}
}
