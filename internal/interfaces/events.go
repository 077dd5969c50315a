package interfaces

import (
	"context"
	"time"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

// StatePublisher emits durable state-change events.
type StatePublisher interface {
	PublishStateChanged(ctx context.Context, tx *models.Transaction) error
}

// StatusNotifier pushes the latest status to live listeners such as the
// checkout status page.
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, tx *models.Transaction) error
}

// Locker guards a key for the duration of one notification.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
