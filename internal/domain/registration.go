package domain

import "time"

// OTPValidity is how long a registration challenge stays redeemable.
const OTPValidity = 10 * time.Minute

// PendingRegistration holds an unredeemed email challenge together with the
// provisional account payload. The account is only materialized once the
// code is verified; until then nothing about the user exists in the ledger.
type PendingRegistration struct {
	ID            int64
	Email         string
	Code          string
	Username      string
	PasswordHash  string
	AccountNumber string
	ExpiresAt     time.Time
	Used          bool
	CreatedAt     time.Time
}

// Valid reports whether the challenge can still be redeemed at instant now.
func (p *PendingRegistration) Valid(now time.Time) bool {
	return !p.Used && now.Before(p.ExpiresAt)
}
