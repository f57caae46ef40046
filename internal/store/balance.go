package store

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// BalanceStore keeps per-client asset balances. Asset codes are
// case-insensitive.
type BalanceStore interface {
	// Get returns the client's balance of asset, zero when none was deposited.
	Get(clientID, asset string) (decimal.Decimal, error)
	// Deposit adds amount to the client's balance of asset and returns the
	// new balance.
	Deposit(clientID, asset string, amount decimal.Decimal) (decimal.Decimal, error)
	// List returns every asset balance of the client. It returns
	// domain.ErrClientNotFound if the client never deposited anything.
	List(clientID string) (map[string]decimal.Decimal, error)
	Close() error
}

// MemoryBalanceStore is a thread-safe in-memory BalanceStore,
// keyed by client_id.
type MemoryBalanceStore struct {
	mu       sync.RWMutex
	balances map[string]map[string]decimal.Decimal // client_id → asset → amount
}

// NewMemoryBalanceStore creates an empty MemoryBalanceStore.
func NewMemoryBalanceStore() *MemoryBalanceStore {
	return &MemoryBalanceStore{
		balances: make(map[string]map[string]decimal.Decimal),
	}
}

func (s *MemoryBalanceStore) Get(clientID, asset string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.balances[clientID][strings.ToUpper(asset)], nil
}

func (s *MemoryBalanceStore) Deposit(clientID, asset string, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets, ok := s.balances[clientID]
	if !ok {
		assets = make(map[string]decimal.Decimal)
		s.balances[clientID] = assets
	}
	key := strings.ToUpper(asset)
	assets[key] = assets[key].Add(amount)
	return assets[key], nil
}

func (s *MemoryBalanceStore) List(clientID string) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets, ok := s.balances[clientID]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	result := make(map[string]decimal.Decimal, len(assets))
	for asset, amount := range assets {
		result[asset] = amount
	}
	return result, nil
}

func (s *MemoryBalanceStore) Close() error {
	return nil
}
