package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

type CurrencyRegistry interface {
	Resolve(ctx context.Context, id int64) (*models.Currency, error)
}
