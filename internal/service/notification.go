package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/interfaces"
	"github.com/akylbek/payment-system/tilopay-connector/internal/metrics"
	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
)

var (
	// ErrNoData is returned for a callback without any key/value pairs.
	ErrNoData = errors.New("tilopay: no data received")
	// ErrInFlight is returned when another delivery for the same reference
	// is being processed.
	ErrInFlight = errors.New("tilopay: notification already being processed")
	// ErrStateChanged is returned when the transaction left the state it was
	// read in before the result could be saved.
	ErrStateChanged = errors.New("tilopay: transaction state changed during reconciliation")
)

const lockTTL = 30 * time.Second

// DecodeValues unescapes every value with query semantics: "+" becomes a
// space and "%2B" a literal plus. Values that fail to decode are left out of
// the result and reported in failed.
func DecodeValues(raw map[string]string) (data models.NotificationData, failed map[string]error) {
	data = make(models.NotificationData, len(raw))
	for key, value := range raw {
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[key] = err
			continue
		}
		data[key] = decoded
	}
	return data, failed
}

type NotificationService struct {
	locator    *Locator
	reconciler Reconciler
	store      interfaces.TransactionStore
	locker     interfaces.Locker
	publisher  interfaces.StatePublisher
	notifier   interfaces.StatusNotifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewNotificationService(
	locator *Locator,
	reconciler Reconciler,
	store interfaces.TransactionStore,
	locker interfaces.Locker,
	publisher interfaces.StatePublisher,
	notifier interfaces.StatusNotifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		locator:    locator,
		reconciler: reconciler,
		store:      store,
		locker:     locker,
		publisher:  publisher,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
	}
}

// Handle processes one provider callback end to end: decode, locate,
// reconcile, persist, announce. The returned error is for logging only; the
// caller answers every callback the same way.
func (s *NotificationService) Handle(ctx context.Context, raw map[string]string) error {
	log := telemetry.Logger(ctx, s.logger)

	if len(raw) == 0 {
		log.Warn("Handling redirection from Tilopay with no data")
		s.metrics.Notifications.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return ErrNoData
	}

	data, failed := DecodeValues(raw)
	for key, err := range failed {
		log.Warn("Dropping undecodable notification value", zap.String("key", key), zap.Error(err))
	}
	log.Info("Handling redirection from Tilopay", zap.Any("data", map[string]string(data)))

	tx, err := s.locator.Locate(ctx, models.ProviderTilopay, data)
	if err != nil {
		s.metrics.Notifications.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return err
	}
	log = log.With(zap.String("reference", tx.Reference))

	lockKey := fmt.Sprintf("tilopay_notification_lock:%s", tx.Reference)
	locked, err := s.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		s.metrics.Notifications.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
		return fmt.Errorf("acquire lock for %s: %w", tx.Reference, err)
	}
	if !locked {
		s.metrics.Notifications.WithLabelValues(metrics.OutcomeLocked).Inc()
		return fmt.Errorf("%w: %s", ErrInFlight, tx.Reference)
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			log.Warn("Failed to release notification lock", zap.Error(err))
		}
	}()

	fromState := tx.State
	if fromState.IsTerminal() {
		log.Warn("Reconciling a transaction that already reached a final state",
			zap.String("state", string(fromState)))
	}
	if err := s.reconciler.Reconcile(ctx, tx, data); err != nil {
		s.metrics.Notifications.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
		return fmt.Errorf("reconcile %s: %w", tx.Reference, err)
	}

	rows, err := s.store.SaveResult(ctx, tx, fromState)
	if err != nil {
		s.metrics.Notifications.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
		return fmt.Errorf("save %s: %w", tx.Reference, err)
	}
	if rows == 0 {
		s.metrics.Notifications.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
		return fmt.Errorf("%w: %s", ErrStateChanged, tx.Reference)
	}

	s.metrics.Notifications.WithLabelValues(metrics.OutcomeReconciled).Inc()
	s.metrics.Transitions.WithLabelValues(string(tx.State)).Inc()
	log.Info("Payment state transition",
		zap.String("from_state", string(fromState)),
		zap.String("to_state", string(tx.State)),
		zap.String("state_message", tx.StateMessage),
		zap.String("provider_reference", tx.ProviderReference),
	)

	if err := s.publisher.PublishStateChanged(ctx, tx); err != nil {
		log.Error("Failed to publish state change", zap.Error(err))
	}
	if err := s.notifier.NotifyStatus(ctx, tx); err != nil {
		log.Warn("Failed to notify status listeners", zap.Error(err))
	}
	return nil
}
