package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/interfaces"
	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

const (
	TransactionCreatedTopic = "payment.transaction.created"
	transactionSyncGroup    = "tilopay-connector"
)

// MessageReader is the part of *kafka.Reader the sync loop needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewTransactionReader opens the consumer-group reader for created events.
func NewTransactionReader(brokers []string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    TransactionCreatedTopic,
		GroupID:  transactionSyncGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

// TransactionSync mirrors transactions opened by the checkout into the local
// store so that callbacks can be matched against them.
type TransactionSync struct {
	store      interfaces.TransactionStore
	currencies interfaces.CurrencyRegistry
	logger     *zap.Logger
}

func NewTransactionSync(store interfaces.TransactionStore, currencies interfaces.CurrencyRegistry, logger *zap.Logger) *TransactionSync {
	return &TransactionSync{store: store, currencies: currencies, logger: logger}
}

// Run consumes until ctx is done. Bad messages are logged and skipped.
func (s *TransactionSync) Run(ctx context.Context, reader MessageReader) error {
	defer reader.Close()

	s.logger.Info("Started consuming transaction events", zap.String("topic", TransactionCreatedTopic))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("Error reading message from Kafka", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := s.HandleMessage(ctx, msg.Value); err != nil {
			s.logger.Error("Error syncing transaction",
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
		}
	}
}

// HandleMessage decodes one created event and stores the transaction as
// pending. Events for other providers are ignored.
func (s *TransactionSync) HandleMessage(ctx context.Context, payload []byte) error {
	var event models.TransactionCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if event.ProviderCode != models.ProviderTilopay {
		return nil
	}
	reference := strings.TrimSpace(event.Reference)
	if reference == "" {
		return errors.New("event without reference")
	}

	amount, err := decimal.NewFromString(event.Amount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", event.Amount, err)
	}
	currency, err := s.currencies.Resolve(ctx, event.CurrencyID)
	if err != nil {
		return fmt.Errorf("currency %d: %w", event.CurrencyID, err)
	}

	tx := &models.Transaction{
		Reference:    reference,
		ProviderCode: event.ProviderCode,
		Amount:       amount,
		Currency:     *currency,
		State:        models.StatePending,
	}
	if err := s.store.InsertPending(ctx, tx); err != nil {
		return fmt.Errorf("insert %s: %w", reference, err)
	}

	s.logger.Info("Transaction synced",
		zap.String("reference", reference),
		zap.String("amount", amount.String()),
		zap.String("currency", currency.Name),
	)
	return nil
}
