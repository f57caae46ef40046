package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/service"
)

const timeFormat = "2006-01-02T15:04:05Z"

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
// Decimals are accepted as JSON numbers or strings.
type submitOrderRequest struct {
	ClientID string           `json:"client_id"`
	Pair     string           `json:"pair"`
	Side     string           `json:"side"`
	Type     string           `json:"type"`
	Price    *decimal.Decimal `json:"price"`
	Volume   decimal.Decimal  `json:"volume"`
}

// orderResponse is the JSON representation of an order. Decimals are
// encoded as strings.
type orderResponse struct {
	OrderID         string              `json:"order_id"`
	ClientID        string              `json:"client_id"`
	Pair            string              `json:"pair"`
	Side            string              `json:"side"`
	Type            string              `json:"type"`
	Price           *decimal.Decimal    `json:"price,omitempty"`
	Volume          decimal.Decimal     `json:"volume"`
	ExecutedVolume  decimal.Decimal     `json:"executed_volume"`
	RemainingVolume decimal.Decimal     `json:"remaining_volume"`
	AveragePrice    *decimal.Decimal    `json:"average_price"`
	Status          string              `json:"status"`
	Executions      []executionResponse `json:"executions"`
	CreatedAt       string              `json:"created_at"`
}

// executionResponse is a single fill in the order response.
type executionResponse struct {
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
	ExecutedAt string          `json:"executed_at"`
}

// orderListResponse is the JSON response for GET /clients/{client_id}/orders.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orderSvc.SubmitOrder(service.SubmitOrderRequest{
		ClientID:  req.ClientID,
		Pair:      req.Pair,
		TradeType: domain.TradeType(req.Side),
		OrderType: domain.OrderType(req.Type),
		Price:     req.Price,
		Volume:    req.Volume,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.GetOrder(chi.URLParam(r, "order_id"))
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// CancelOrder handles DELETE /orders/{order_id}.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.CancelOrder(chi.URLParam(r, "order_id"))
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// ListClientOrders handles GET /clients/{client_id}/orders.
func (h *OrderHandler) ListClientOrders(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")

	var statusFilter *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.OrderStatus(s)
		statusFilter = &status
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	orders, total, err := h.orderSvc.ListClientOrders(clientID, statusFilter, page, limit)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := orderListResponse{
		Orders: make([]orderResponse, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for i, o := range orders {
		resp.Orders[i] = buildOrderResponse(o)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// buildOrderResponse converts an order snapshot. Market orders omit price
// and average_price is null until the first fill.
func buildOrderResponse(o domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:         o.OrderID,
		ClientID:        o.ClientID,
		Pair:            o.Pair,
		Side:            string(o.TradeType),
		Type:            string(o.OrderType),
		Volume:          o.Volume,
		ExecutedVolume:  o.ExecutedVolume(),
		RemainingVolume: o.RemainingVolume,
		Status:          string(o.Status),
		Executions:      make([]executionResponse, len(o.Executions)),
		CreatedAt:       o.CreatedAt.UTC().Format(timeFormat),
	}

	if o.OrderType == domain.OrderTypeLimit {
		price := o.Price
		resp.Price = &price
	}
	if avg, ok := o.AveragePrice(); ok {
		resp.AveragePrice = &avg
	}
	for i, e := range o.Executions {
		resp.Executions[i] = executionResponse{
			Price:      e.Price,
			Volume:     e.Volume,
			ExecutedAt: e.ExecutedAt.UTC().Format(timeFormat),
		}
	}
	return resp
}
