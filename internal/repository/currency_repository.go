package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

// CurrencyRepository resolves currencies by id. Currencies are immutable
// reference data, so resolved rows are kept in memory.
type CurrencyRepository struct {
	db    *sql.DB
	mu    sync.RWMutex
	cache map[int64]models.Currency
}

func NewCurrencyRepository(db *sql.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db, cache: make(map[int64]models.Currency)}
}

func (r *CurrencyRepository) Resolve(ctx context.Context, id int64) (*models.Currency, error) {
	r.mu.RLock()
	c, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return &c, nil
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, rounding FROM currencies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Rounding)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[id] = c
	r.mu.Unlock()
	return &c, nil
}

// Upsert stores c and refreshes the cached copy.
func (r *CurrencyRepository) Upsert(ctx context.Context, c models.Currency) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO currencies (id, name, rounding)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, rounding = EXCLUDED.rounding
	`, c.ID, c.Name, c.Rounding)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cache[c.ID] = c
	r.mu.Unlock()
	return nil
}
