package publisher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/engine"
)

// QuoteLevel is a single resting order as seen by quote consumers.
type QuoteLevel struct {
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
}

// Quote is the order book message published downstream.
type Quote struct {
	Source    string       `json:"source"`
	Asset     string       `json:"asset"`
	Timestamp time.Time    `json:"timestamp"`
	Asks      []QuoteLevel `json:"asks"`
	Bids      []QuoteLevel `json:"bids"`
}

// BuildQuote snapshots book into a Quote. Asks are listed lowest price
// first, bids highest first, each with its remaining volume.
func BuildQuote(source string, book *engine.OrderBook, at time.Time) Quote {
	bids, asks := book.Snapshot()
	return Quote{
		Source:    source,
		Asset:     book.Pair(),
		Timestamp: at.UTC(),
		Asks:      levels(asks),
		Bids:      levels(bids),
	}
}

// levels reports what is still open on the book: each entry carries the
// order's remaining volume, not the volume it was placed with.
func levels(orders []domain.Order) []QuoteLevel {
	result := make([]QuoteLevel, len(orders))
	for i, o := range orders {
		result[i] = QuoteLevel{Price: o.Price, Volume: o.RemainingVolume}
	}
	return result
}
