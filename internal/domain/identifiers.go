package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// AccountNumberPrefix is the bank's routing prefix on every account number.
const AccountNumberPrefix = "RB"

// GenerateAccountNumber produces an externally facing account number:
// the RB prefix, the last eight digits of the current Unix-millisecond
// clock, and two random digits. Uniqueness is enforced by the store; the
// caller retries on the rare collision.
func GenerateAccountNumber() string {
	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return fmt.Sprintf("%s%s%02d", AccountNumberPrefix, millis, randomInt(100))
}

// GenerateOTPCode returns a six-digit challenge code.
func GenerateOTPCode() string {
	return fmt.Sprintf("%06d", 100000+randomInt(900000))
}

func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		// crypto/rand only fails when the platform source is broken;
		// fall back to the clock rather than handing out a fixed code.
		return time.Now().UnixNano() % max
	}
	return n.Int64()
}
