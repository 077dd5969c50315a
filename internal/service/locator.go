package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/interfaces"
	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
	"github.com/akylbek/payment-system/tilopay-connector/internal/returndata"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
)

// Locator finds the transaction a notification refers to.
type Locator struct {
	store  interfaces.TransactionStore
	tracer trace.Tracer
	logger *zap.Logger
}

func NewLocator(store interfaces.TransactionStore, tracer trace.Tracer, logger *zap.Logger) *Locator {
	return &Locator{store: store, tracer: tracer, logger: logger}
}

// Locate tries the store's generic lookup first. When that does not yield
// exactly one transaction it falls back to the reference embedded in the
// returnData blob. Every failure is a *ValidationError.
func (l *Locator) Locate(ctx context.Context, providerCode string, data models.NotificationData) (*models.Transaction, error) {
	ctx, span := l.tracer.Start(ctx, "tilopay.locate")
	defer span.End()
	log := telemetry.Logger(ctx, l.logger)

	tx, err := l.store.FindUnique(ctx, providerCode, data)
	if err != nil {
		return nil, validationErrorf(err, "transaction lookup failed")
	}
	if tx != nil || providerCode != models.ProviderTilopay {
		if tx == nil {
			return nil, validationErrorf(nil, "no transaction found for provider %s", providerCode)
		}
		span.SetAttributes(attribute.String("tilopay.reference", tx.Reference))
		return tx, nil
	}

	blob, err := returndata.ParseMapping(data[models.KeyReturnData])
	if err != nil {
		return nil, validationErrorf(err, "invalid return data format")
	}

	refValue, _ := blob.Lookup("reference")
	reference, _ := refValue.Scalar()
	if reference == "" {
		return nil, validationErrorf(nil, "missing reference in return data")
	}
	span.SetAttributes(attribute.String("tilopay.reference", reference))

	txs, err := l.store.FindAll(ctx, reference, models.ProviderTilopay)
	if err != nil {
		return nil, validationErrorf(err, "transaction lookup for reference %s failed", reference)
	}
	switch len(txs) {
	case 0:
		return nil, validationErrorf(nil, "no transaction found matching reference %s", reference)
	case 1:
		log.Debug("Transaction located from return data", zap.String("reference", reference))
		return txs[0], nil
	default:
		return nil, validationErrorf(nil, "%d transactions match reference %s", len(txs), reference)
	}
}
