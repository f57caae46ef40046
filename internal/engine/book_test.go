package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// allowAll authorizes every order and counts the calls.
type allowAll struct {
	mu    sync.Mutex
	calls int
}

func (a *allowAll) AuthorizeOrder(*domain.Order) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return true
}

type denyAll struct{}

func (denyAll) AuthorizeOrder(*domain.Order) bool { return false }

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func makeEntry(price int64, seq uint64) bookEntry {
	return bookEntry{
		Price: d(price),
		Seq:   seq,
		Order: &domain.Order{Price: d(price), RemainingVolume: d(1)},
	}
}

func newLimit(tradeType domain.TradeType, price, volume int64) *domain.Order {
	o := domain.NewOrder("client", "BTCUSD", tradeType, domain.OrderTypeLimit, d(price), d(volume))
	o.OrderID = uuid.New().String()
	return o
}

func newTestBook() *OrderBook {
	return NewOrderBook("BTCUSD", &allowAll{})
}

func TestBidLess_PriceDescending(t *testing.T) {
	a := makeEntry(200, 2)
	b := makeEntry(100, 1)
	if !bidLess(a, b) {
		t.Error("expected higher price to be less on bid side")
	}
	if bidLess(b, a) {
		t.Error("expected lower price to not be less on bid side")
	}
}

func TestBidLess_SeqAscending(t *testing.T) {
	a := makeEntry(100, 1)
	b := makeEntry(100, 2)
	if !bidLess(a, b) {
		t.Error("expected earlier insertion to be less on bid side at same price")
	}
	if bidLess(b, a) {
		t.Error("expected later insertion to not be less on bid side at same price")
	}
}

func TestAskLess_PriceAscending(t *testing.T) {
	a := makeEntry(100, 2)
	b := makeEntry(200, 1)
	if !askLess(a, b) {
		t.Error("expected lower price to be less on ask side")
	}
	if askLess(b, a) {
		t.Error("expected higher price to not be less on ask side")
	}
}

func TestAskLess_SeqAscending(t *testing.T) {
	a := makeEntry(100, 1)
	b := makeEntry(100, 2)
	if !askLess(a, b) {
		t.Error("expected earlier insertion to be less on ask side at same price")
	}
}

func TestAskLess_EqualDecimalsDifferentScale(t *testing.T) {
	a := bookEntry{Price: decimal.RequireFromString("100.0"), Seq: 1}
	b := bookEntry{Price: decimal.RequireFromString("100"), Seq: 2}
	if !askLess(a, b) {
		t.Error("100.0 and 100 are the same price, insertion order must decide")
	}
}

func TestOrderBook_SnapshotsOrderedBestFirst(t *testing.T) {
	ob := newTestBook()
	for _, p := range []int64{101, 99, 100} {
		if err := ob.Add(newLimit(domain.TradeTypeSell, p, 1)); err != nil {
			t.Fatalf("Add sell %d: %v", p, err)
		}
	}
	for _, p := range []int64{90, 95, 80} {
		if err := ob.Add(newLimit(domain.TradeTypeBuy, p, 1)); err != nil {
			t.Fatalf("Add buy %d: %v", p, err)
		}
	}

	asks := ob.Asks()
	wantAsks := []int64{99, 100, 101}
	for i, o := range asks {
		if !o.Price.Equal(d(wantAsks[i])) {
			t.Errorf("asks[%d] price = %s, want %d", i, o.Price, wantAsks[i])
		}
	}

	bids := ob.Bids()
	wantBids := []int64{95, 90, 80}
	for i, o := range bids {
		if !o.Price.Equal(d(wantBids[i])) {
			t.Errorf("bids[%d] price = %s, want %d", i, o.Price, wantBids[i])
		}
	}

	all := ob.AllOrders()
	if len(all) != 6 {
		t.Fatalf("len(AllOrders()) = %d, want 6", len(all))
	}
	if all[0].TradeType != domain.TradeTypeBuy || all[5].TradeType != domain.TradeTypeSell {
		t.Error("AllOrders() should list bids before asks")
	}
}

func TestOrderBook_SnapshotIsDefensiveCopy(t *testing.T) {
	ob := newTestBook()
	sell := newLimit(domain.TradeTypeSell, 100, 10)
	_ = ob.Add(sell)

	before := ob.Asks()
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 100, 4))

	if !before[0].RemainingVolume.Equal(d(10)) {
		t.Errorf("snapshot changed after later Add: remaining = %s, want 10", before[0].RemainingVolume)
	}
	if len(before[0].Executions) != 0 {
		t.Error("snapshot executions changed after later Add")
	}

	before[0].RemainingVolume = d(0)
	if !ob.Asks()[0].RemainingVolume.Equal(d(6)) {
		t.Error("mutating a snapshot must not affect the book")
	}
}

func TestOrderBook_SnapshotBothSides(t *testing.T) {
	ob := newTestBook()
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 90, 1))
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 95, 2))
	_ = ob.Add(newLimit(domain.TradeTypeSell, 110, 3))

	bids, asks := ob.Snapshot()
	if len(bids) != 2 || len(asks) != 1 {
		t.Fatalf("Snapshot() = %d bids %d asks, want 2 and 1", len(bids), len(asks))
	}
	if !bids[0].Price.Equal(d(95)) {
		t.Errorf("best bid = %s, want 95", bids[0].Price)
	}
	if !asks[0].Volume.Equal(d(3)) {
		t.Errorf("ask volume = %s, want 3", asks[0].Volume)
	}
}

func TestOrderBook_EmptySnapshots(t *testing.T) {
	ob := newTestBook()
	if got := ob.Asks(); len(got) != 0 {
		t.Errorf("Asks() = %d orders, want 0", len(got))
	}
	if got := ob.Bids(); len(got) != 0 {
		t.Errorf("Bids() = %d orders, want 0", len(got))
	}
	if got := ob.AllOrders(); len(got) != 0 {
		t.Errorf("AllOrders() = %d orders, want 0", len(got))
	}
}

func TestAggregateLevels(t *testing.T) {
	ob := newTestBook()
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 100, 5))
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 100, 3))
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 99, 7))
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 98, 1))

	levels := AggregateLevels(ob.Bids(), 2)
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}
	if !levels[0].Price.Equal(d(100)) || !levels[0].Volume.Equal(d(8)) || levels[0].OrderCount != 2 {
		t.Errorf("level 0 = %+v, want price 100 volume 8 count 2", levels[0])
	}
	if !levels[1].Price.Equal(d(99)) || !levels[1].Volume.Equal(d(7)) || levels[1].OrderCount != 1 {
		t.Errorf("level 1 = %+v, want price 99 volume 7 count 1", levels[1])
	}

	if got := AggregateLevels(ob.Asks(), 10); len(got) != 0 {
		t.Errorf("AggregateLevels on empty side = %d levels, want 0", len(got))
	}
	if got := AggregateLevels(ob.Bids(), 0); got != nil {
		t.Errorf("AggregateLevels(bids, 0) = %v, want nil", got)
	}
}

func TestOrderBook_Subscribe_Unsubscribe(t *testing.T) {
	ob := newTestBook()
	var calls []string
	unsubA := ob.Subscribe(func(*OrderBook) { calls = append(calls, "a") })
	ob.Subscribe(func(*OrderBook) { calls = append(calls, "b") })

	_ = ob.Add(newLimit(domain.TradeTypeBuy, 100, 1))
	unsubA()
	_ = ob.Add(newLimit(domain.TradeTypeBuy, 100, 1))

	want := []string{"a", "b", "b"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestOrderBook_SubscriberCanReadBook(t *testing.T) {
	ob := newTestBook()
	var seen int
	ob.Subscribe(func(b *OrderBook) {
		// Reentrant read: would deadlock if called under the book lock.
		seen = len(b.Bids())
	})

	_ = ob.Add(newLimit(domain.TradeTypeBuy, 100, 1))
	if seen != 1 {
		t.Errorf("subscriber saw %d bids, want 1", seen)
	}
}

func TestOrderBook_SubscriberCanAddToBook(t *testing.T) {
	ob := newTestBook()
	reentered := false
	ob.Subscribe(func(b *OrderBook) {
		if reentered {
			return
		}
		reentered = true
		if err := b.Add(newLimit(domain.TradeTypeSell, 200, 1)); err != nil {
			t.Errorf("reentrant Add: %v", err)
		}
	})

	_ = ob.Add(newLimit(domain.TradeTypeBuy, 100, 1))
	if ob.AskCount() != 1 || ob.BidCount() != 1 {
		t.Errorf("asks=%d bids=%d, want 1 and 1", ob.AskCount(), ob.BidCount())
	}
}

func TestBookManager_Get(t *testing.T) {
	bm := NewBookManager(&allowAll{}, []domain.Pair{
		{Name: "BTCUSD", Base: "BTC", Quote: "USD"},
		{Name: "ETHUSD", Base: "ETH", Quote: "USD"},
	})

	book, err := bm.Get("btcusd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Pair() != "BTCUSD" {
		t.Errorf("Pair() = %s, want BTCUSD", book.Pair())
	}

	again, _ := bm.Get("BTCUSD")
	if again != book {
		t.Error("Get should return the same book instance")
	}

	if _, err := bm.Get("DOGEUSD"); !errors.Is(err, domain.ErrPairNotFound) {
		t.Errorf("Get(DOGEUSD) error = %v, want ErrPairNotFound", err)
	}

	all := bm.All()
	if len(all) != 2 || all[0].Pair() != "BTCUSD" || all[1].Pair() != "ETHUSD" {
		t.Errorf("All() returned unexpected books")
	}
}
