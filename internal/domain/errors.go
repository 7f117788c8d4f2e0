package domain

import "errors"

// Expected business outcomes. Handlers branch on these directly; anything
// not in this list is treated as an internal failure and kept out of
// client responses.
var (
	// Validation
	ErrMissingFields    = errors.New("all fields are required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrInvalidAmount    = errors.New("amount must be greater than 0")
	ErrInvalidBalance   = errors.New("invalid balance")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP is deliberately generic: it never reveals which of
	// email, code, expiry or reuse failed the check.
	ErrInvalidOTP = errors.New("invalid or expired OTP")

	// Conflict
	ErrDuplicateUser       = errors.New("username or email already exists")
	ErrSelfTransfer        = errors.New("cannot transfer to your own account")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSelfDelete          = errors.New("cannot delete your own account")

	// Not found
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountNotFound   = errors.New("sender account not found")
	ErrRecipientNotFound = errors.New("recipient account not found")

	// Throttling
	ErrRateLimited = errors.New("too many attempts, try again later")
)
