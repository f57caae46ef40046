package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/service"
)

// BalanceHandler handles HTTP requests for balance endpoints.
type BalanceHandler struct {
	balanceSvc *service.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceSvc *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceSvc: balanceSvc}
}

// depositRequest is the JSON request body for POST /balances.
type depositRequest struct {
	ClientID string          `json:"client_id"`
	Asset    string          `json:"asset"`
	Amount   decimal.Decimal `json:"amount"`
}

// balanceResponse is a single asset balance.
type balanceResponse struct {
	ClientID string          `json:"client_id"`
	Asset    string          `json:"asset"`
	Amount   decimal.Decimal `json:"amount"`
}

// balanceListResponse is the JSON response for GET /clients/{client_id}/balances.
type balanceListResponse struct {
	ClientID string            `json:"client_id"`
	Balances []balanceResponse `json:"balances"`
}

// Deposit handles POST /balances.
func (h *BalanceHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := h.balanceSvc.Deposit(service.DepositRequest{
		ClientID: req.ClientID,
		Asset:    req.Asset,
		Amount:   req.Amount,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, balanceResponse(balance))
}

// ListBalances handles GET /clients/{client_id}/balances.
func (h *BalanceHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")

	balances, err := h.balanceSvc.Balances(clientID)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := balanceListResponse{
		ClientID: clientID,
		Balances: make([]balanceResponse, len(balances)),
	}
	for i, b := range balances {
		resp.Balances[i] = balanceResponse(b)
	}
	WriteJSON(w, http.StatusOK, resp)
}
