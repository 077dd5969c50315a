package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS currencies (
			id BIGINT PRIMARY KEY,
			name VARCHAR(3) NOT NULL UNIQUE,
			rounding NUMERIC(12, 6) NOT NULL DEFAULT 0.01
		)`,
		`CREATE TABLE IF NOT EXISTS payment_transactions (
			reference VARCHAR(255) PRIMARY KEY,
			provider_code VARCHAR(50) NOT NULL,
			amount NUMERIC(16, 4) NOT NULL,
			currency_id BIGINT NOT NULL REFERENCES currencies(id),
			provider_reference VARCHAR(255) NOT NULL DEFAULT '',
			state VARCHAR(20) NOT NULL,
			previous_state VARCHAR(20) NOT NULL DEFAULT '',
			state_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_transactions_provider ON payment_transactions(provider_code, reference)`,
		`CREATE TABLE IF NOT EXISTS sale_orders (
			name VARCHAR(64) PRIMARY KEY,
			amount_total NUMERIC(16, 4) NOT NULL,
			currency_id BIGINT NOT NULL REFERENCES currencies(id),
			partner_name VARCHAR(255) NOT NULL DEFAULT '',
			partner_first_name VARCHAR(255) NOT NULL DEFAULT '',
			partner_last_name VARCHAR(255) NOT NULL DEFAULT '',
			partner_surname VARCHAR(255) NOT NULL DEFAULT '',
			partner_street VARCHAR(255) NOT NULL DEFAULT '',
			partner_country_code VARCHAR(2) NOT NULL DEFAULT '',
			partner_email VARCHAR(255) NOT NULL DEFAULT ''
		)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

const selectTransaction = `
	SELECT t.reference, t.provider_code, t.amount, t.provider_reference,
		t.state, t.previous_state, t.state_message, t.created_at, t.updated_at,
		c.id, c.name, c.rounding
	FROM payment_transactions t
	JOIN currencies c ON c.id = t.currency_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.Reference, &tx.ProviderCode, &tx.Amount, &tx.ProviderReference,
		&tx.State, &tx.PreviousState, &tx.StateMessage, &tx.CreatedAt, &tx.UpdatedAt,
		&tx.Currency.ID, &tx.Currency.Name, &tx.Currency.Rounding,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindUnique recognises a top-level "reference" field. Anything else yields
// no match and leaves the decision to the provider-specific lookup.
func (r *TransactionRepository) FindUnique(ctx context.Context, providerCode string, data models.NotificationData) (*models.Transaction, error) {
	reference := strings.TrimSpace(data[models.KeyReference])
	if reference == "" {
		return nil, nil
	}
	txs, err := r.FindAll(ctx, reference, providerCode)
	if err != nil {
		return nil, err
	}
	if len(txs) != 1 {
		return nil, nil
	}
	return txs[0], nil
}

func (r *TransactionRepository) FindAll(ctx context.Context, reference, providerCode string) ([]*models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransaction+`
		WHERE t.reference = $1 AND t.provider_code = $2`, reference, providerCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, selectTransaction+`
		WHERE t.reference = $1`, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tx, err
}

func (r *TransactionRepository) InsertPending(ctx context.Context, tx *models.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (reference, provider_code, amount, currency_id, state)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reference) DO NOTHING
	`, tx.Reference, tx.ProviderCode, tx.Amount, tx.Currency.ID, models.StatePending)
	return err
}

func (r *TransactionRepository) SaveResult(ctx context.Context, tx *models.Transaction, fromState models.TransactionState) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_transactions
		SET state = $1, previous_state = $2, state_message = $3, provider_reference = $4, updated_at = NOW()
		WHERE reference = $5 AND provider_code = $6 AND state = $7
	`, tx.State, fromState, tx.StateMessage, tx.ProviderReference, tx.Reference, tx.ProviderCode, fromState)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
