package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

const (
	StateChangedTopic = "payment.state.changed"
	stateChangedType  = "payment.state.changed"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewStateWriter returns a writer for the state-change topic.
func NewStateWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    StateChangedTopic,
		Balancer: &kafka.LeastBytes{},
	}
}

// StateChangedEvent is the payload written for every persisted transition.
type StateChangedEvent struct {
	EventID           string `json:"event_id"`
	EventType         string `json:"event_type"`
	EventVersion      int    `json:"event_version"`
	OccurredAt        string `json:"occurred_at"`
	Reference         string `json:"reference"`
	ProviderCode      string `json:"provider_code"`
	State             string `json:"state"`
	PreviousState     string `json:"previous_state"`
	StateMessage      string `json:"state_message,omitempty"`
	ProviderReference string `json:"provider_reference,omitempty"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
}

// KafkaStatePublisher implements interfaces.StatePublisher on Kafka.
type KafkaStatePublisher struct {
	logger *zap.Logger
	writer MessageWriter
}

func NewKafkaStatePublisher(logger *zap.Logger, writer MessageWriter) *KafkaStatePublisher {
	return &KafkaStatePublisher{logger: logger, writer: writer}
}

func (p *KafkaStatePublisher) PublishStateChanged(ctx context.Context, tx *models.Transaction) error {
	event := StateChangedEvent{
		EventID:           uuid.New().String(),
		EventType:         stateChangedType,
		EventVersion:      1,
		OccurredAt:        time.Now().UTC().Format(time.RFC3339),
		Reference:         tx.Reference,
		ProviderCode:      tx.ProviderCode,
		State:             string(tx.State),
		PreviousState:     string(tx.PreviousState),
		StateMessage:      tx.StateMessage,
		ProviderReference: tx.ProviderReference,
		Amount:            tx.Amount.StringFixed(2),
		Currency:          tx.Currency.Name,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal state event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tx.Reference),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish state event for %s: %w", tx.Reference, err)
	}

	p.logger.Info("state change event published",
		zap.String("topic", StateChangedTopic),
		zap.String("reference", tx.Reference),
		zap.String("event_id", event.EventID),
		zap.String("state", event.State),
	)
	return nil
}
