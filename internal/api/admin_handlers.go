package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/skrapar556-ux/royalebank/internal/domain"
)

// AdminListUsers returns every account, without credential hashes.
// GET /api/admin/users
func (h *Handlers) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// AdminCreateUser creates an account directly, bypassing the OTP flow.
// POST /api/admin/users
func (h *Handlers) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string          `json:"username"`
		Email    string          `json:"email"`
		Password string          `json:"password"`
		Balance  decimal.Decimal `json:"balance"`
		IsAdmin  bool            `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.AdminCreateUser(r.Context(), req.Username, req.Email, req.Password, req.Balance, req.IsAdmin)
	if err != nil {
		writeDomainError(w, err, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

// AdminPatchBalance overrides a user's balance; the ledger records the
// audit adjustment.
// PATCH /api/admin/users/{id}
func (h *Handlers) AdminPatchBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req struct {
		Balance *decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Balance == nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidBalance.Error())
		return
	}

	if err := h.svc.AdminSetBalance(r.Context(), id, *req.Balance); err != nil {
		writeDomainError(w, err, "Failed to update balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Balance updated successfully"})
}

// AdminDeleteUser removes an account while retaining its transaction
// history. Admins cannot delete themselves.
// DELETE /api/admin/users/{id}
func (h *Handlers) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.svc.AdminDeleteUser(r.Context(), session.UserID, id); err != nil {
		writeDomainError(w, err, "Failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// AdminListTransactions lists the most recent ledger entries system-wide.
// GET /api/admin/transactions
func (h *Handlers) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.AdminListTransactions(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}
