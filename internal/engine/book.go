package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// BalanceAuthorizer decides whether a client can afford to place an order.
// It is consulted before the book lock is taken, so it may block.
type BalanceAuthorizer interface {
	AuthorizeOrder(order *domain.Order) bool
}

// ChangeHandler is called after an order has been added to a book.
type ChangeHandler func(book *OrderBook)

// bookEntry is a single order resting on one side of the book. Seq is the
// book-wide insertion counter and gives FIFO ordering within a price.
type bookEntry struct {
	Price decimal.Decimal
	Seq   uint64
	Order *domain.Order
}

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price      decimal.Decimal
	Volume     decimal.Decimal
	OrderCount int
}

// bidLess orders the bid side by price descending, then insertion order,
// so Min() is the best bid.
func bidLess(a, b bookEntry) bool {
	if !a.Price.Equal(b.Price) {
		return a.Price.GreaterThan(b.Price)
	}
	return a.Seq < b.Seq
}

// askLess orders the ask side by price ascending, then insertion order,
// so Min() is the best ask.
func askLess(a, b bookEntry) bool {
	if !a.Price.Equal(b.Price) {
		return a.Price.LessThan(b.Price)
	}
	return a.Seq < b.Seq
}

type subscriber struct {
	id uint64
	fn ChangeHandler
}

// OrderBook holds the resting orders for a single pair. A single mutex
// guards both sides and every order reachable from them.
type OrderBook struct {
	pair       string
	authorizer BalanceAuthorizer

	mu    sync.Mutex
	seq   uint64
	bids  *btree.BTreeG[bookEntry]
	asks  *btree.BTreeG[bookEntry]
	index map[*domain.Order]bookEntry

	subMu       sync.Mutex
	subSeq      uint64
	subscribers []subscriber
}

// NewOrderBook creates an empty order book for pair.
func NewOrderBook(pair string, authorizer BalanceAuthorizer) *OrderBook {
	const degree = 32
	return &OrderBook{
		pair:       pair,
		authorizer: authorizer,
		bids:       btree.NewG[bookEntry](degree, bidLess),
		asks:       btree.NewG[bookEntry](degree, askLess),
		index:      make(map[*domain.Order]bookEntry),
	}
}

// Pair returns the instrument this book serves.
func (ob *OrderBook) Pair() string {
	return ob.pair
}

// Subscribe registers fn to be called after every successful Add. The
// returned function removes the subscription.
//
// Handlers run on the adding goroutine after the book lock is released.
// Notifications from concurrent Adds may arrive in any order, and by the
// time a handler reads the book it may already reflect later changes.
func (ob *OrderBook) Subscribe(fn ChangeHandler) (unsubscribe func()) {
	ob.subMu.Lock()
	defer ob.subMu.Unlock()

	ob.subSeq++
	id := ob.subSeq
	ob.subscribers = append(ob.subscribers, subscriber{id: id, fn: fn})

	return func() {
		ob.subMu.Lock()
		defer ob.subMu.Unlock()
		for i, s := range ob.subscribers {
			if s.id == id {
				ob.subscribers = append(ob.subscribers[:i:i], ob.subscribers[i+1:]...)
				return
			}
		}
	}
}

// notify calls every subscriber in subscription order. It must not be
// called with ob.mu held.
func (ob *OrderBook) notify() {
	ob.subMu.Lock()
	subs := make([]subscriber, len(ob.subscribers))
	copy(subs, ob.subscribers)
	ob.subMu.Unlock()

	for _, s := range subs {
		s.fn(ob)
	}
}

// validate checks an incoming order before any lock is taken.
func (ob *OrderBook) validate(order *domain.Order) error {
	if !strings.EqualFold(order.Pair, ob.pair) {
		return fmt.Errorf("order book for %s can't accept orders for %s: %w", ob.pair, order.Pair, domain.ErrInstrumentMismatch)
	}
	if order.TradeType != domain.TradeTypeBuy && order.TradeType != domain.TradeTypeSell {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown trade type %q", order.TradeType)}
	}
	if order.OrderType != domain.OrderTypeLimit && order.OrderType != domain.OrderTypeMarket {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown order type %q", order.OrderType)}
	}
	if !ob.authorizer.AuthorizeOrder(order) {
		return fmt.Errorf("client %s can't place order %s: %w", order.ClientID, order, domain.ErrInsufficientBalance)
	}
	return nil
}

// insert rests order on the side matching its trade type. Caller holds ob.mu.
func (ob *OrderBook) insert(order *domain.Order) {
	ob.seq++
	entry := bookEntry{Price: order.Price, Seq: ob.seq, Order: order}
	if order.TradeType == domain.TradeTypeBuy {
		ob.bids.ReplaceOrInsert(entry)
	} else {
		ob.asks.ReplaceOrInsert(entry)
	}
	ob.index[order] = entry
}

// remove deletes order from the side matching its trade type and reports
// whether it was resting there. Caller holds ob.mu.
func (ob *OrderBook) remove(order *domain.Order) bool {
	entry, ok := ob.index[order]
	if !ok {
		return false
	}
	side := ob.asks
	if order.TradeType == domain.TradeTypeBuy {
		side = ob.bids
	}
	if _, found := side.Delete(entry); !found {
		return false
	}
	delete(ob.index, order)
	return true
}

// removeExecuted drops every resting order without remaining volume.
// Caller holds ob.mu and has finished all matching for the transaction.
func (ob *OrderBook) removeExecuted() {
	var done []*domain.Order
	collect := func(e bookEntry) bool {
		if !e.Order.HasRemainingVolume() {
			done = append(done, e.Order)
		}
		return true
	}
	ob.asks.Ascend(collect)
	ob.bids.Ascend(collect)

	for _, o := range done {
		ob.remove(o)
	}
}

// Asks returns a copy of the resting sell orders, best price first.
func (ob *OrderBook) Asks() []domain.Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return snapshot(ob.asks)
}

// Bids returns a copy of the resting buy orders, best price first.
func (ob *OrderBook) Bids() []domain.Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return snapshot(ob.bids)
}

// AllOrders returns a copy of every resting order, bids first.
func (ob *OrderBook) AllOrders() []domain.Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return append(snapshot(ob.bids), snapshot(ob.asks)...)
}

// Snapshot returns copies of both sides taken under a single lock, each
// best price first.
func (ob *OrderBook) Snapshot() (bids, asks []domain.Order) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return snapshot(ob.bids), snapshot(ob.asks)
}

// Inspect returns a consistent copy of order's current state. Use it to
// read an order that may be resting on this book.
func (ob *OrderBook) Inspect(order *domain.Order) domain.Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return order.Clone()
}

func snapshot(tree *btree.BTreeG[bookEntry]) []domain.Order {
	result := make([]domain.Order, 0, tree.Len())
	tree.Ascend(func(e bookEntry) bool {
		result = append(result, e.Order.Clone())
		return true
	})
	return result
}

// AggregateLevels folds orders sorted best price first into at most n
// price levels of remaining volume.
func AggregateLevels(orders []domain.Order, n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	for _, o := range orders {
		if last := len(levels) - 1; last >= 0 && levels[last].Price.Equal(o.Price) {
			levels[last].Volume = levels[last].Volume.Add(o.RemainingVolume)
			levels[last].OrderCount++
			continue
		}
		if len(levels) == n {
			break
		}
		levels = append(levels, PriceLevel{
			Price:      o.Price,
			Volume:     o.RemainingVolume,
			OrderCount: 1,
		})
	}
	return levels
}

// BidCount returns the number of individual bid orders on the book
// without copying them. BidCount and AskCount exist so tests can observe
// the book after Add and Cancel.
func (ob *OrderBook) BidCount() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.bids.Len()
}

// AskCount returns the number of individual ask orders on the book.
func (ob *OrderBook) AskCount() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.asks.Len()
}

// BookManager owns one OrderBook per configured pair. The set of books is
// fixed at construction.
type BookManager struct {
	books map[string]*OrderBook // upper-cased pair → book
	order []*OrderBook
}

// NewBookManager creates a book for every pair, all sharing authorizer.
func NewBookManager(authorizer BalanceAuthorizer, pairs []domain.Pair) *BookManager {
	bm := &BookManager{
		books: make(map[string]*OrderBook, len(pairs)),
		order: make([]*OrderBook, 0, len(pairs)),
	}
	for _, p := range pairs {
		book := NewOrderBook(p.Name, authorizer)
		bm.books[strings.ToUpper(p.Name)] = book
		bm.order = append(bm.order, book)
	}
	return bm
}

// Get returns the book for pair, ignoring case.
func (bm *BookManager) Get(pair string) (*OrderBook, error) {
	book, ok := bm.books[strings.ToUpper(pair)]
	if !ok {
		return nil, fmt.Errorf("pair %q: %w", pair, domain.ErrPairNotFound)
	}
	return book, nil
}

// All returns every book in configuration order.
func (bm *BookManager) All() []*OrderBook {
	result := make([]*OrderBook, len(bm.order))
	copy(result, bm.order)
	return result
}
