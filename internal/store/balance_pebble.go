package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fakeexchange/internal/domain"
)

// PebbleBalanceStore is a BalanceStore persisted in a pebble database.
// Balances live under keys "balance/<client_id>/<ASSET>" as decimal strings.
type PebbleBalanceStore struct {
	db *pebble.DB
	mu sync.Mutex // serializes read-modify-write deposits
}

// OpenPebbleBalanceStore opens (or creates) a pebble database in dir.
func OpenPebbleBalanceStore(dir string) (*PebbleBalanceStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open balance store %s: %w", dir, err)
	}
	return NewPebbleBalanceStore(db), nil
}

// NewPebbleBalanceStore wraps an already opened database. The store takes
// ownership of db and closes it on Close.
func NewPebbleBalanceStore(db *pebble.DB) *PebbleBalanceStore {
	return &PebbleBalanceStore{db: db}
}

func (s *PebbleBalanceStore) Get(clientID, asset string) (decimal.Decimal, error) {
	return s.get(balanceKey(clientID, asset))
}

func (s *PebbleBalanceStore) get(key []byte) (decimal.Decimal, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	defer closer.Close()

	return decimal.NewFromString(string(val))
}

func (s *PebbleBalanceStore) Deposit(clientID, asset string, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := balanceKey(clientID, asset)
	current, err := s.get(key)
	if err != nil {
		return decimal.Zero, err
	}
	updated := current.Add(amount)
	if err := s.db.Set(key, []byte(updated.String()), pebble.Sync); err != nil {
		return decimal.Zero, err
	}
	return updated, nil
}

func (s *PebbleBalanceStore) List(clientID string) (map[string]decimal.Decimal, error) {
	prefix := clientPrefix(clientID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(append([]byte{}, prefix...), 0xff),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	result := make(map[string]decimal.Decimal)
	for iter.First(); iter.Valid(); iter.Next() {
		amount, err := decimal.NewFromString(string(iter.Value()))
		if err != nil {
			return nil, fmt.Errorf("decode balance %s: %w", iter.Key(), err)
		}
		result[string(iter.Key()[len(prefix):])] = amount
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, domain.ErrClientNotFound
	}
	return result, nil
}

func (s *PebbleBalanceStore) Close() error {
	return s.db.Close()
}

func clientPrefix(clientID string) []byte {
	return []byte("balance/" + clientID + "/")
}

func balanceKey(clientID, asset string) []byte {
	return append(clientPrefix(clientID), strings.ToUpper(asset)...)
}
