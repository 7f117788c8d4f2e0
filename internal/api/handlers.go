package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/app"
	"github.com/skrapar556-ux/royalebank/internal/auth"
	"github.com/skrapar556-ux/royalebank/internal/domain"
)

// Handlers carries the dependencies of every HTTP endpoint.
type Handlers struct {
	svc           *app.Service
	secureCookies bool
}

// NewHandlers creates the endpoint handlers. secureCookies should be true
// whenever the service is reached over TLS.
func NewHandlers(svc *app.Service, secureCookies bool) *Handlers {
	return &Handlers{svc: svc, secureCookies: secureCookies}
}

func (h *Handlers) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register starts the OTP challenge flow.
// POST /api/auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.svc.RequestRegistration(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeDomainError(w, err, "Registration failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "OTP sent to your email",
		"email":       req.Email,
		"requiresOtp": true,
	})
}

// VerifyOTP redeems the challenge, materializes the account and starts a
// session.
// POST /api/auth/verify-otp
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.svc.VerifyRegistration(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeDomainError(w, err, "Verification failed")
		return
	}

	h.setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Registration successful",
		"user":    user.Public(),
	})
}

// Login authenticates by username or email and starts a session.
// POST /api/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err, "Login failed")
		return
	}

	h.setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    user.Public(),
	})
}

// Logout clears the session cookie. The token itself stays valid until
// expiry; there is no server-side revocation.
// POST /api/auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Balance returns the caller's current balance and account number.
// GET /api/user/balance
func (h *Handlers) Balance(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	user, err := h.svc.UserByID(r.Context(), session.UserID)
	if err != nil {
		writeDomainError(w, err, "Failed to fetch balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance":       user.Balance,
		"accountNumber": user.AccountNumber,
	})
}

// Transfer moves funds from the caller's account to another account.
// POST /api/user/transfer
func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	var req struct {
		ToAccount   string          `json:"toAccount"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ToAccount == "" {
		writeError(w, http.StatusBadRequest, "Account number and amount are required")
		return
	}

	tx, err := h.svc.Ledger().Transfer(r.Context(), session.AccountNumber, req.ToAccount, req.Amount, req.Description)
	if err != nil {
		writeDomainError(w, err, "Transfer failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Transfer successful",
		"transactionId": tx.ID,
	})
}

// Transactions lists the caller's transaction history, newest first.
// GET /api/user/transactions
func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	txs, err := h.svc.Ledger().TransactionsFor(r.Context(), session.AccountNumber)
	if err != nil {
		writeDomainError(w, err, "Failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}
