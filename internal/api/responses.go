package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/skrapar556-ux/royalebank/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps an expected business outcome to its HTTP status.
// Unrecognized errors are logged and reported as a generic internal
// failure so no implementation detail leaks.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case domain.ErrMissingFields, domain.ErrPasswordTooShort,
		domain.ErrInvalidAmount, domain.ErrInvalidBalance,
		domain.ErrSelfTransfer, domain.ErrInsufficientBalance,
		domain.ErrSelfDelete, domain.ErrInvalidOTP:
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.ErrInvalidCredentials:
		writeError(w, http.StatusUnauthorized, err.Error())
	case domain.ErrDuplicateUser:
		writeError(w, http.StatusConflict, err.Error())
	case domain.ErrUserNotFound, domain.ErrAccountNotFound, domain.ErrRecipientNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case domain.ErrRateLimited:
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
