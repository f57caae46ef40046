package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/engine"
)

// BookSnapshot is a point-in-time view of a pair's order book.
type BookSnapshot struct {
	Pair      string
	Asks      []domain.Order // best (lowest) price first
	Bids      []domain.Order // best (highest) price first
	AskLevels []engine.PriceLevel
	BidLevels []engine.PriceLevel
	Spread    *decimal.Decimal // nil if either side empty
	TakenAt   time.Time
}

// BookService handles pair and order book queries.
type BookService struct {
	books *engine.BookManager
	pairs *domain.PairRegistry
}

// NewBookService creates a new BookService.
func NewBookService(books *engine.BookManager, pairs *domain.PairRegistry) *BookService {
	return &BookService{
		books: books,
		pairs: pairs,
	}
}

// Pairs returns every tradable pair in configuration order.
func (s *BookService) Pairs() []domain.Pair {
	return s.pairs.All()
}

// GetBook returns the resting orders of a pair and its top depth
// aggregated price levels on each side.
func (s *BookService) GetBook(pair string, depth int) (BookSnapshot, error) {
	if depth < 1 || depth > 50 {
		return BookSnapshot{}, &domain.ValidationError{
			Message: "depth must be between 1 and 50",
		}
	}

	book, err := s.books.Get(pair)
	if err != nil {
		return BookSnapshot{}, err
	}

	bids, asks := book.Snapshot()
	snap := BookSnapshot{
		Pair:      book.Pair(),
		Asks:      asks,
		Bids:      bids,
		AskLevels: engine.AggregateLevels(asks, depth),
		BidLevels: engine.AggregateLevels(bids, depth),
		TakenAt:   time.Now(),
	}

	if len(bids) > 0 && len(asks) > 0 {
		spread := asks[0].Price.Sub(bids[0].Price)
		snap.Spread = &spread
	}
	return snap, nil
}
