package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/interfaces"
	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
	"github.com/akylbek/payment-system/tilopay-connector/internal/repository"
	"github.com/akylbek/payment-system/tilopay-connector/internal/returndata"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
)

// State messages recorded on the transaction.
const (
	MsgCustomerLeft       = "The customer left the payment page."
	MsgInvalidReturnData  = "Tilopay: Invalid returnData format received."
	MsgMissingAmount      = "Tilopay: Missing amount or currency information."
	MsgInvalidCurrency    = "Tilopay: Invalid currency code received."
	MsgInvalidAmount      = "Tilopay: Invalid amount received."
	MsgAmountMismatch     = "Tilopay: Mismatching transaction amounts."
	MsgCurrencyMismatch   = "Tilopay: Mismatching currency codes."
	MsgMissingTransaction = "Tilopay: Missing transaction ID."
	MsgNoErrorDescription = "No error description provided."
)

// Reconciler is one step of notification processing. A step records data
// problems on the transaction itself; a returned error means the step could
// not run at all and the transaction must not be persisted.
type Reconciler interface {
	Reconcile(ctx context.Context, tx *models.Transaction, data models.NotificationData) error
}

// ReconcileChain runs its steps in order and stops at the first error.
type ReconcileChain []Reconciler

func (c ReconcileChain) Reconcile(ctx context.Context, tx *models.Transaction, data models.NotificationData) error {
	for _, step := range c {
		if err := step.Reconcile(ctx, tx, data); err != nil {
			return err
		}
	}
	return nil
}

// BaseReconciler is the provider-independent step that runs before any
// provider logic.
type BaseReconciler struct {
	logger *zap.Logger
}

func NewBaseReconciler(logger *zap.Logger) *BaseReconciler {
	return &BaseReconciler{logger: logger}
}

func (b *BaseReconciler) Reconcile(ctx context.Context, tx *models.Transaction, data models.NotificationData) error {
	if tx == nil {
		return errors.New("reconcile: nil transaction")
	}
	telemetry.Logger(ctx, b.logger).Info("Processing notification data",
		zap.String("reference", tx.Reference),
		zap.String("provider_code", tx.ProviderCode),
		zap.String("state", string(tx.State)),
		zap.Int("fields", len(data)),
	)
	return nil
}

// TilopayReconciler validates a Tilopay callback against the transaction and
// drives it to done, canceled or error. Checks run in a fixed order and the
// first failing one decides the outcome, so no field is written before every
// earlier check has passed.
type TilopayReconciler struct {
	currencies interfaces.CurrencyRegistry
	tracer     trace.Tracer
	logger     *zap.Logger
}

func NewTilopayReconciler(currencies interfaces.CurrencyRegistry, tracer trace.Tracer, logger *zap.Logger) *TilopayReconciler {
	return &TilopayReconciler{currencies: currencies, tracer: tracer, logger: logger}
}

func (r *TilopayReconciler) Reconcile(ctx context.Context, tx *models.Transaction, data models.NotificationData) error {
	if tx.ProviderCode != models.ProviderTilopay {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "tilopay.reconcile",
		trace.WithAttributes(attribute.String("tilopay.reference", tx.Reference)))
	defer span.End()
	log := telemetry.Logger(ctx, r.logger).With(zap.String("reference", tx.Reference))

	if len(data) == 0 {
		tx.SetCanceled(MsgCustomerLeft)
		return nil
	}

	blob, err := returndata.ParseMapping(data[models.KeyReturnData])
	if err != nil {
		log.Error("Tilopay: error parsing returnData", zap.Error(err))
		tx.SetError(MsgInvalidReturnData)
		return nil
	}

	amountValue, _ := blob.Lookup("amount")
	currencyValue, _ := blob.Lookup("currency")
	if !amountValue.Truthy() || !currencyValue.Truthy() {
		tx.SetError(MsgMissingAmount)
		return nil
	}

	currency, err := r.resolveCurrency(ctx, currencyValue)
	if err != nil {
		if !errors.Is(err, errInvalidCurrency) {
			return err
		}
		log.Warn("Tilopay: currency not resolved", zap.Error(err))
		tx.SetError(MsgInvalidCurrency)
		return nil
	}

	amount, err := amountValue.Decimal()
	if err != nil {
		log.Warn("Tilopay: amount is not a number", zap.Error(err))
		tx.SetError(MsgInvalidAmount)
		return nil
	}

	if tx.Currency.CompareAmounts(amount, tx.Amount) != 0 {
		log.Warn("Tilopay: amount mismatch",
			zap.String("expected", tx.Amount.String()),
			zap.String("received", amount.String()),
		)
		tx.SetError(MsgAmountMismatch)
		return nil
	}

	if currency.Name != tx.Currency.Name {
		log.Warn("Tilopay: currency mismatch",
			zap.String("expected", tx.Currency.Name),
			zap.String("received", currency.Name),
		)
		tx.SetError(MsgCurrencyMismatch)
		return nil
	}

	providerRef := data[models.KeyTransaction]
	if providerRef == "" {
		tx.SetError(MsgMissingTransaction)
		return nil
	}
	tx.ProviderReference = providerRef

	code := data[models.KeyCode]
	log.Info("Tilopay notification validated",
		zap.String("provider_reference", providerRef),
		zap.String("code", code),
	)
	if code == models.CodeApproved {
		tx.SetDone()
		return nil
	}

	description, ok := data.Get(models.KeyDescription)
	if !ok {
		description = MsgNoErrorDescription
	}
	tx.SetCanceled(description)
	return nil
}

var errInvalidCurrency = errors.New("invalid currency")

// resolveCurrency wraps data problems in errInvalidCurrency; any other error
// comes from the registry itself.
func (r *TilopayReconciler) resolveCurrency(ctx context.Context, v returndata.Value) (*models.Currency, error) {
	id, err := v.Int()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidCurrency, err)
	}
	currency, err := r.currencies.Resolve(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown currency id %d", errInvalidCurrency, id)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve currency %d: %w", id, err)
	}
	return currency, nil
}
