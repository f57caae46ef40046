package service

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/engine"
	"github.com/efreitasn/fakeexchange/internal/store"
)

// ValidOrderStatuses lists all valid order status values for validation.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusActive:    true,
	domain.OrderStatusCancelled: true,
}

// SubmitOrderRequest represents the input for order submission.
type SubmitOrderRequest struct {
	ClientID  string
	Pair      string
	TradeType domain.TradeType
	OrderType domain.OrderType
	Price     *decimal.Decimal // required for limit, must be nil for market
	Volume    decimal.Decimal
}

// OrderService handles order submission, retrieval, cancellation, and listing.
// Orders it returns are copies taken under their book's lock.
type OrderService struct {
	books      *engine.BookManager
	orderStore *store.OrderStore
	logger     *slog.Logger
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(books *engine.BookManager, orderStore *store.OrderStore, logger *slog.Logger) *OrderService {
	return &OrderService{
		books:      books,
		orderStore: orderStore,
		logger:     logger,
	}
}

// SubmitOrder validates the request, creates the order and adds it to the
// pair's book. The order is only recorded when the book accepts it.
func (s *OrderService) SubmitOrder(req SubmitOrderRequest) (domain.Order, error) {
	if err := validateSubmit(req); err != nil {
		return domain.Order{}, err
	}

	book, err := s.books.Get(req.Pair)
	if err != nil {
		return domain.Order{}, err
	}

	price := decimal.Zero
	if req.Price != nil {
		price = *req.Price
	}
	order := domain.NewOrder(req.ClientID, book.Pair(), req.TradeType, req.OrderType, price, req.Volume)
	order.OrderID = uuid.New().String()

	if err := book.Add(order); err != nil {
		return domain.Order{}, err
	}
	s.orderStore.Create(order)

	snapshot := book.Inspect(order)
	s.logger.Info("order accepted",
		slog.String("order_id", snapshot.OrderID),
		slog.String("client_id", snapshot.ClientID),
		slog.String("pair", snapshot.Pair),
		slog.String("trade_type", string(snapshot.TradeType)),
		slog.String("price", snapshot.Price.String()),
		slog.String("volume", snapshot.Volume.String()),
		slog.Int("executions", len(snapshot.Executions)),
	)
	return snapshot, nil
}

func validateSubmit(req SubmitOrderRequest) error {
	if req.OrderType != domain.OrderTypeLimit && req.OrderType != domain.OrderTypeMarket {
		return &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: limit, market", req.OrderType),
		}
	}
	if !clientIDRegex.MatchString(req.ClientID) {
		return &domain.ValidationError{
			Message: "client_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.TradeType != domain.TradeTypeBuy && req.TradeType != domain.TradeTypeSell {
		return &domain.ValidationError{
			Message: "side must be 'buy' or 'sell'",
		}
	}
	if req.Pair == "" {
		return &domain.ValidationError{
			Message: "pair is required",
		}
	}
	if err := domain.ValidateAmount("volume", req.Volume); err != nil {
		return err
	}

	if req.OrderType == domain.OrderTypeMarket {
		if req.Price != nil {
			return &domain.ValidationError{
				Message: "market orders must not include price",
			}
		}
		return nil
	}

	if req.Price == nil {
		return &domain.ValidationError{
			Message: "price is required for limit orders",
		}
	}
	return domain.ValidateAmount("price", *req.Price)
}

// GetOrder retrieves the current state of an order by ID.
func (s *OrderService) GetOrder(orderID string) (domain.Order, error) {
	order, book, err := s.lookup(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return book.Inspect(order), nil
}

// CancelOrder removes an order from its book. Orders that are no longer
// resting are returned unchanged.
func (s *OrderService) CancelOrder(orderID string) (domain.Order, error) {
	order, book, err := s.lookup(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	book.Cancel(order)

	snapshot := book.Inspect(order)
	s.logger.Info("order cancel requested",
		slog.String("order_id", orderID),
		slog.String("status", string(snapshot.Status)),
		slog.String("remaining_volume", snapshot.RemainingVolume.String()),
	)
	return snapshot, nil
}

func (s *OrderService) lookup(orderID string) (*domain.Order, *engine.OrderBook, error) {
	order, err := s.orderStore.Get(orderID)
	if err != nil {
		return nil, nil, err
	}
	book, err := s.books.Get(order.Pair)
	if err != nil {
		return nil, nil, err
	}
	return order, book, nil
}

// ListClientOrders returns a page of a client's orders, newest first, with
// optional status filtering, and the total number of matching orders.
func (s *OrderService) ListClientOrders(clientID string, status *domain.OrderStatus, page, limit int) ([]domain.Order, int, error) {
	if !clientIDRegex.MatchString(clientID) {
		return nil, 0, &domain.ValidationError{
			Message: "client_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if status != nil && !ValidOrderStatuses[*status] {
		return nil, 0, &domain.ValidationError{
			Message: fmt.Sprintf("Invalid status filter: '%s'. Must be one of: active, cancelled", *status),
		}
	}
	if page < 1 {
		return nil, 0, &domain.ValidationError{
			Message: "page must be >= 1",
		}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{
			Message: "limit must be between 1 and 100",
		}
	}

	filtered := make([]domain.Order, 0)
	for _, order := range s.orderStore.ListByClient(clientID) {
		book, err := s.books.Get(order.Pair)
		if err != nil {
			return nil, 0, err
		}
		snapshot := book.Inspect(order)
		if status != nil && snapshot.Status != *status {
			continue
		}
		filtered = append(filtered, snapshot)
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}
