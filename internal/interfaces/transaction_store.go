package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

// TransactionStore defines the contract for payment transaction data access
type TransactionStore interface {
	// FindUnique is the generic lookup. It returns nil, nil when the data
	// matches no transaction or more than one.
	FindUnique(ctx context.Context, providerCode string, data models.NotificationData) (*models.Transaction, error)
	FindAll(ctx context.Context, reference, providerCode string) ([]*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	InsertPending(ctx context.Context, tx *models.Transaction) error
	// SaveResult persists state, message and provider reference, guarded on
	// the transaction still being in fromState.
	SaveResult(ctx context.Context, tx *models.Transaction, fromState models.TransactionState) (int64, error)
}
