// Package memory holds in-process stores used for local runs and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
	"github.com/akylbek/payment-system/tilopay-connector/internal/repository"
)

// TransactionStore keeps transactions keyed by reference. Returned values
// are copies, like rows read from a database.
type TransactionStore struct {
	mu           sync.RWMutex
	transactions map[string]models.Transaction
}

func NewTransactionStore(txs ...models.Transaction) *TransactionStore {
	s := &TransactionStore{transactions: make(map[string]models.Transaction)}
	for _, tx := range txs {
		s.transactions[tx.Reference] = tx
	}
	return s
}

func (s *TransactionStore) FindUnique(ctx context.Context, providerCode string, data models.NotificationData) (*models.Transaction, error) {
	reference := strings.TrimSpace(data[models.KeyReference])
	if reference == "" {
		return nil, nil
	}
	txs, _ := s.FindAll(ctx, reference, providerCode)
	if len(txs) != 1 {
		return nil, nil
	}
	return txs[0], nil
}

func (s *TransactionStore) FindAll(ctx context.Context, reference, providerCode string) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[reference]
	if !ok || tx.ProviderCode != providerCode {
		return nil, nil
	}
	return []*models.Transaction{&tx}, nil
}

func (s *TransactionStore) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tx, nil
}

func (s *TransactionStore) InsertPending(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.Reference]; exists {
		return nil
	}
	row := *tx
	row.State = models.StatePending
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	s.transactions[tx.Reference] = row
	return nil
}

func (s *TransactionStore) SaveResult(ctx context.Context, tx *models.Transaction, fromState models.TransactionState) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.transactions[tx.Reference]
	if !ok || row.ProviderCode != tx.ProviderCode || row.State != fromState {
		return 0, nil
	}
	row.State = tx.State
	row.PreviousState = fromState
	row.StateMessage = tx.StateMessage
	row.ProviderReference = tx.ProviderReference
	row.UpdatedAt = time.Now()
	s.transactions[tx.Reference] = row
	return 1, nil
}

// CurrencyRegistry is a fixed set of currencies.
type CurrencyRegistry struct {
	currencies map[int64]models.Currency
}

func NewCurrencyRegistry(currencies ...models.Currency) *CurrencyRegistry {
	r := &CurrencyRegistry{currencies: make(map[int64]models.Currency, len(currencies))}
	for _, c := range currencies {
		r.currencies[c.ID] = c
	}
	return r
}

func (r *CurrencyRegistry) Resolve(ctx context.Context, id int64) (*models.Currency, error) {
	c, ok := r.currencies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewOrderStore(orders ...models.Order) *OrderStore {
	s := &OrderStore{orders: make(map[string]models.Order)}
	for _, o := range orders {
		s.orders[o.Name] = o
	}
	return s
}

func (s *OrderStore) GetByName(ctx context.Context, name string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

// Locker is an in-process stand-in for the Redis lock.
type Locker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]time.Time)}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.held[key]; ok && time.Now().Before(until) {
		return false, nil
	}
	l.held[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *Locker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)
	return nil
}
