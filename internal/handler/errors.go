package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// mapError maps domain errors to HTTP responses.
func mapError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrPairNotFound):
		WriteError(w, http.StatusNotFound, "pair_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrClientNotFound):
		WriteError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, domain.ErrInstrumentMismatch):
		WriteError(w, http.StatusBadRequest, "instrument_mismatch", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		WriteError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrNotImplemented):
		WriteError(w, http.StatusNotImplemented, "not_implemented", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
