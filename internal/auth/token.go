/**
 * @description
 * This file implements the token authority: issuing and verifying the
 * stateless session credentials that gate every protected operation.
 * Tokens are HS256 JWTs signed with a server-held secret; there is no
 * server-side session storage and no revocation, so a verified token stays
 * valid until its expiry.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: For JWT signing and validation.
 */

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued session credential stays valid.
const TokenLifetime = 7 * 24 * time.Hour

// SessionClaims is the identity payload carried by a session token.
type SessionClaims struct {
	UserID        int64  `json:"userId"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	AccountNumber string `json:"accountNumber"`
	IsAdmin       bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenAuthority issues and verifies session tokens.
type TokenAuthority struct {
	secret []byte
	now    func() time.Time
}

// NewTokenAuthority creates a token authority signing with the given secret.
func NewTokenAuthority(secret string) *TokenAuthority {
	return &TokenAuthority{secret: []byte(secret), now: time.Now}
}

// Issue signs a session token for the given identity. The expiry is stamped
// here; callers never control it.
func (a *TokenAuthority) Issue(userID int64, username, email, accountNumber string, isAdmin bool) (string, error) {
	now := a.now()
	claims := SessionClaims{
		UserID:        userID,
		Username:      username,
		Email:         email,
		AccountNumber: accountNumber,
		IsAdmin:       isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify checks the token's signature and expiry and returns the embedded
// identity. Malformed, tampered and expired tokens all yield (nil, false);
// no detail about the failure is exposed.
func (a *TokenAuthority) Verify(tokenString string) (*SessionClaims, bool) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	claims := &SessionClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}
