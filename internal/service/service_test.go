package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/engine"
	"github.com/efreitasn/fakeexchange/internal/store"
)

// testEnv bundles all dependencies needed for service tests.
type testEnv struct {
	pairs      *domain.PairRegistry
	balances   store.BalanceStore
	orderStore *store.OrderStore
	books      *engine.BookManager
	balanceSvc *BalanceService
	orderSvc   *OrderService
	bookSvc    *BookService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pairs, err := domain.NewPairRegistry(
		domain.Pair{Name: "BTCUSD", Base: "BTC", Quote: "USD"},
		domain.Pair{Name: "ETHBTC", Base: "ETH", Quote: "BTC"},
	)
	if err != nil {
		t.Fatalf("NewPairRegistry: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bs := store.NewMemoryBalanceStore()
	os := store.NewOrderStore()
	balanceSvc := NewBalanceService(bs, pairs, logger)
	books := engine.NewBookManager(balanceSvc, pairs.All())
	return &testEnv{
		pairs:      pairs,
		balances:   bs,
		orderStore: os,
		books:      books,
		balanceSvc: balanceSvc,
		orderSvc:   NewOrderService(books, os, logger),
		bookSvc:    NewBookService(books, pairs),
	}
}

// fund deposits amount of asset for client.
func (env *testEnv) fund(t *testing.T, client, asset, amount string) {
	t.Helper()
	if _, err := env.balanceSvc.Deposit(DepositRequest{
		ClientID: client,
		Asset:    asset,
		Amount:   decimal.RequireFromString(amount),
	}); err != nil {
		t.Fatalf("failed to fund %s: %v", client, err)
	}
}

// limit submits a limit order and fails the test on error.
func (env *testEnv) limit(t *testing.T, client string, tradeType domain.TradeType, price, volume string) domain.Order {
	t.Helper()
	order, err := env.orderSvc.SubmitOrder(SubmitOrderRequest{
		ClientID:  client,
		Pair:      "BTCUSD",
		TradeType: tradeType,
		OrderType: domain.OrderTypeLimit,
		Price:     decPtr(price),
		Volume:    decimal.RequireFromString(volume),
	})
	if err != nil {
		t.Fatalf("SubmitOrder(%s %s@%s): %v", tradeType, volume, price, err)
	}
	return order
}

func decPtr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
