package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// Add validates order, matches it against the opposite side and rests any
// unfilled remainder. Subscribers are notified once the book lock has been
// released.
//
// Validation (pair, trade and order type, balance) runs before the lock is
// taken and a failed validation leaves the book and the order untouched.
// Market orders pass validation but cannot be matched yet and fail with
// domain.ErrNotImplemented.
func (ob *OrderBook) Add(order *domain.Order) error {
	if err := ob.validate(order); err != nil {
		return err
	}

	if order.OrderType == domain.OrderTypeMarket {
		return fmt.Errorf("market order matching: %w", domain.ErrNotImplemented)
	}

	ob.mu.Lock()
	ob.matchLimit(order)
	if order.HasRemainingVolume() {
		ob.insert(order)
	}
	ob.removeExecuted()
	ob.mu.Unlock()

	ob.notify()
	return nil
}

// matchLimit sweeps the opposite side best price first, FIFO within a
// price, executing at the resting order's price until order is filled or
// no crossing order remains. It reports whether order executed at all.
// Caller holds ob.mu.
func (ob *OrderBook) matchLimit(order *domain.Order) bool {
	side := ob.asks
	crosses := func(price decimal.Decimal) bool { return price.LessThanOrEqual(order.Price) }
	if order.TradeType == domain.TradeTypeSell {
		side = ob.bids
		crosses = func(price decimal.Decimal) bool { return price.GreaterThanOrEqual(order.Price) }
	}

	side.Ascend(func(e bookEntry) bool {
		if !crosses(e.Price) {
			// Sides are sorted, nothing further can cross.
			return false
		}

		resting := e.Order
		volume := decimal.Min(resting.RemainingVolume, order.RemainingVolume)
		if volume.IsPositive() {
			// volume is within both remaining volumes, Execute cannot fail.
			_ = resting.Execute(volume, resting.Price)
			_ = order.Execute(volume, resting.Price)
		}

		return order.HasRemainingVolume()
	})

	return order.HasExecutions()
}

// Cancel removes order from the book and marks it cancelled. An order that
// is not resting on the book (filled, already cancelled, or never added) is
// ignored. Cancel does not notify subscribers.
func (ob *OrderBook) Cancel(order *domain.Order) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if ob.remove(order) {
		order.Cancel()
	}
}
