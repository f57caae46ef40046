package store

import (
	"sync"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// OrderStore is a thread-safe in-memory store for submitted orders,
// with a primary index by order_id and a secondary index by client_id.
//
// The store only indexes orders. Their execution state is owned by the
// book they were submitted to.
type OrderStore struct {
	mu           sync.RWMutex
	orders       map[string]*domain.Order
	clientOrders map[string][]*domain.Order // client_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:       make(map[string]*domain.Order),
		clientOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the
// client's secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
	s.clientOrders[o.ClientID] = append(s.clientOrders[o.ClientID], o)
}

// Get retrieves an order by ID. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListByClient returns the client's orders newest first.
func (s *OrderStore) ListByClient(clientID string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.clientOrders[clientID]
	result := make([]*domain.Order, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}
