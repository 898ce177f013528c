package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"gym-membership-billing/internal/domain"
)

// errorStatus maps domain sentinels to HTTP statuses. The first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrRateLimited, http.StatusTooManyRequests},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrCancelNotAllowed, http.StatusNotFound},
	{domain.ErrMemberNotFound, http.StatusNotFound},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrAlreadyCompleted, http.StatusBadRequest},
	{domain.ErrVerificationFailed, http.StatusBadRequest},
	{domain.ErrInvalidTransition, http.StatusBadRequest},
	{domain.ErrPlanNotFound, http.StatusBadRequest},
	{domain.ErrProductNotFound, http.StatusBadRequest},
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{domain.ErrInvalidPaymentType, http.StatusBadRequest},
	{domain.ErrInvalidStatus, http.StatusBadRequest},
	{domain.ErrInvalidArgument, http.StatusBadRequest},
	{domain.ErrAlreadyExists, http.StatusConflict},
}

func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Message string `json:"message"`
}

// writeError renders err as {"message": ...}. Unmapped errors never leak their text.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := "internal error"
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorBody{Message: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
