package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// TradeType indicates whether an order buys or sells the base asset.
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Execution records a single fill of an order.
type Execution struct {
	Volume     decimal.Decimal
	Price      decimal.Decimal
	ExecutedAt time.Time
}

// Order represents a client's intent to trade on a single pair.
//
// Once an order has been submitted to a book, its execution state
// (RemainingVolume, Executions, Status) belongs to that book and is only
// mutated while the book's lock is held. Read it through the book.
type Order struct {
	OrderID         string
	ClientID        string
	Pair            string
	TradeType       TradeType
	OrderType       OrderType
	Price           decimal.Decimal // zero for market orders
	Volume          decimal.Decimal
	RemainingVolume decimal.Decimal
	Executions      []Execution
	Status          OrderStatus
	CreatedAt       time.Time
}

// NewOrder creates an active order whose remaining volume equals its volume.
func NewOrder(clientID, pair string, tradeType TradeType, orderType OrderType, price, volume decimal.Decimal) *Order {
	return &Order{
		ClientID:        clientID,
		Pair:            pair,
		TradeType:       tradeType,
		OrderType:       orderType,
		Price:           price,
		Volume:          volume,
		RemainingVolume: volume,
		Status:          OrderStatusActive,
		CreatedAt:       time.Now(),
	}
}

// HasRemainingVolume reports whether part of the order is still unfilled.
func (o *Order) HasRemainingVolume() bool {
	return o.RemainingVolume.IsPositive()
}

// HasExecutions reports whether the order has been filled at least once.
func (o *Order) HasExecutions() bool {
	return len(o.Executions) > 0
}

// Execute fills volume at price. The volume must be positive and no larger
// than the remaining volume.
func (o *Order) Execute(volume, price decimal.Decimal) error {
	if !volume.IsPositive() || volume.GreaterThan(o.RemainingVolume) {
		return fmt.Errorf("%w: volume %s, remaining %s", ErrInvalidExecution, volume, o.RemainingVolume)
	}
	o.RemainingVolume = o.RemainingVolume.Sub(volume)
	o.Executions = append(o.Executions, Execution{
		Volume:     volume,
		Price:      price,
		ExecutedAt: time.Now(),
	})
	return nil
}

// Cancel marks the order as cancelled.
func (o *Order) Cancel() {
	o.Status = OrderStatusCancelled
}

// ExecutedVolume returns the sum of all execution volumes.
func (o *Order) ExecutedVolume() decimal.Decimal {
	total := decimal.Zero
	for _, e := range o.Executions {
		total = total.Add(e.Volume)
	}
	return total
}

// AveragePrice computes the volume-weighted average execution price.
// Returns (price, true) when executions exist, or (0, false) otherwise.
func (o *Order) AveragePrice() (decimal.Decimal, bool) {
	executed := o.ExecutedVolume()
	if !executed.IsPositive() {
		return decimal.Zero, false
	}
	var notional decimal.Decimal
	for _, e := range o.Executions {
		notional = notional.Add(e.Price.Mul(e.Volume))
	}
	return notional.Div(executed), true
}

// Clone returns a copy of the order that shares no mutable state with it.
func (o *Order) Clone() Order {
	c := *o
	c.Executions = make([]Execution, len(o.Executions))
	copy(c.Executions, o.Executions)
	return c
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s %s@%s (%s)", o.OrderID, o.TradeType, o.Pair, o.Volume, o.Price, o.OrderType)
}
