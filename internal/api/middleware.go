/**
 * @description
 * This file contains the authentication middleware for the HTTP router.
 * The session token travels in the auth-token cookie (the browser flow) or
 * as a bearer token on the Authorization header (API clients); either way
 * a verified identity ends up in the request context.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - internal/auth: The token authority.
 */

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/skrapar556-ux/royalebank/internal/auth"
)

// AuthContextKey is a custom type for the context key to avoid collisions.
type AuthContextKey string

// sessionKey is the key used to store the verified session claims in the
// request context.
const sessionKey AuthContextKey = "session"

// AuthCookieName is the cookie carrying the session token.
const AuthCookieName = "auth-token"

// AuthMiddleware verifies the session token and injects the identity into
// the request context. A missing token and an invalid token are handled
// identically: the request is simply not authenticated.
func AuthMiddleware(tokens *auth.TokenAuthority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, ok := tokens.Verify(tokenString)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects authenticated requests whose identity lacks the admin
// role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !session.IsAdmin {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext retrieves the verified session claims from the
// request context.
func SessionFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionKey).(*auth.SessionClaims)
	return claims, ok
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
