package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/engine"
	"github.com/efreitasn/fakeexchange/internal/service"
)

// BookHandler handles HTTP requests for pair and order book endpoints.
type BookHandler struct {
	bookSvc *service.BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(bookSvc *service.BookService) *BookHandler {
	return &BookHandler{bookSvc: bookSvc}
}

// pairResponse is a single tradable pair.
type pairResponse struct {
	Name  string `json:"name"`
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// bookOrderResponse is a single resting order in the book response.
type bookOrderResponse struct {
	OrderID         string          `json:"order_id"`
	Price           decimal.Decimal `json:"price"`
	Volume          decimal.Decimal `json:"volume"`
	RemainingVolume decimal.Decimal `json:"remaining_volume"`
	CreatedAt       string          `json:"created_at"`
}

// bookLevelResponse is a single aggregated price level.
type bookLevelResponse struct {
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
	OrderCount int             `json:"order_count"`
}

// bookResponse is the JSON response for GET /books/{pair}.
type bookResponse struct {
	Pair       string              `json:"pair"`
	Asks       []bookOrderResponse `json:"asks"`
	Bids       []bookOrderResponse `json:"bids"`
	AskLevels  []bookLevelResponse `json:"ask_levels"`
	BidLevels  []bookLevelResponse `json:"bid_levels"`
	Spread     *decimal.Decimal    `json:"spread"`
	SnapshotAt string              `json:"snapshot_at"`
}

// ListPairs handles GET /pairs.
func (h *BookHandler) ListPairs(w http.ResponseWriter, r *http.Request) {
	pairs := h.bookSvc.Pairs()
	resp := make([]pairResponse, len(pairs))
	for i, p := range pairs {
		resp[i] = pairResponse(p)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"pairs": resp})
}

// GetBook handles GET /books/{pair}.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	// Parse depth query param (default 10, max 50).
	depth := 10
	if d := r.URL.Query().Get("depth"); d != "" {
		var err error
		depth, err = strconv.Atoi(d)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "depth must be a valid integer")
			return
		}
	}

	snap, err := h.bookSvc.GetBook(chi.URLParam(r, "pair"), depth)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, bookResponse{
		Pair:       snap.Pair,
		Asks:       buildBookOrders(snap.Asks),
		Bids:       buildBookOrders(snap.Bids),
		AskLevels:  buildBookLevels(snap.AskLevels),
		BidLevels:  buildBookLevels(snap.BidLevels),
		Spread:     snap.Spread,
		SnapshotAt: snap.TakenAt.UTC().Format(timeFormat),
	})
}

func buildBookOrders(orders []domain.Order) []bookOrderResponse {
	result := make([]bookOrderResponse, len(orders))
	for i, o := range orders {
		result[i] = bookOrderResponse{
			OrderID:         o.OrderID,
			Price:           o.Price,
			Volume:          o.Volume,
			RemainingVolume: o.RemainingVolume,
			CreatedAt:       o.CreatedAt.UTC().Format(timeFormat),
		}
	}
	return result
}

func buildBookLevels(levels []engine.PriceLevel) []bookLevelResponse {
	result := make([]bookLevelResponse, len(levels))
	for i, l := range levels {
		result[i] = bookLevelResponse(l)
	}
	return result
}
