package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

type OrderStore interface {
	GetByName(ctx context.Context, name string) (*models.Order, error)
}
