package service

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
	"github.com/akylbek/payment-system/tilopay-connector/internal/repository/memory"
)

type chanReader struct {
	messages chan kafka.Message
	closed   chan struct{}
}

func newChanReader() *chanReader {
	return &chanReader{messages: make(chan kafka.Message, 4), closed: make(chan struct{})}
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.messages:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error {
	close(r.closed)
	return nil
}

func TestTransactionSync_HandleMessage(t *testing.T) {
	store := memory.NewTransactionStore()
	sync := NewTransactionSync(store, memory.NewCurrencyRegistry(usd), zap.NewNop())

	err := sync.HandleMessage(context.Background(),
		[]byte(`{"reference": "S0001-1", "provider_code": "tilopay", "amount": "100.00", "currency_id": 2}`))

	require.NoError(t, err)
	tx, err := store.GetByReference(context.Background(), "S0001-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, tx.State)
	assert.Equal(t, "100", tx.Amount.String())
	assert.Equal(t, "USD", tx.Currency.Name)
}

func TestTransactionSync_HandleMessageRejects(t *testing.T) {
	tests := map[string]string{
		"bad json":         `{"reference":`,
		"missing ref":      `{"reference": " ", "provider_code": "tilopay", "amount": "1", "currency_id": 2}`,
		"bad amount":       `{"reference": "S1", "provider_code": "tilopay", "amount": "ten", "currency_id": 2}`,
		"unknown currency": `{"reference": "S1", "provider_code": "tilopay", "amount": "10", "currency_id": 7}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			store := memory.NewTransactionStore()
			sync := NewTransactionSync(store, memory.NewCurrencyRegistry(usd), zap.NewNop())

			assert.Error(t, sync.HandleMessage(context.Background(), []byte(payload)))
		})
	}
}

func TestTransactionSync_IgnoresOtherProviders(t *testing.T) {
	store := memory.NewTransactionStore()
	sync := NewTransactionSync(store, memory.NewCurrencyRegistry(usd), zap.NewNop())

	err := sync.HandleMessage(context.Background(),
		[]byte(`{"reference": "S0002-1", "provider_code": "stripe", "amount": "5.00", "currency_id": 2}`))

	require.NoError(t, err)
	_, err = store.GetByReference(context.Background(), "S0002-1")
	assert.Error(t, err)
}

func TestTransactionSync_RunStopsOnCancel(t *testing.T) {
	store := memory.NewTransactionStore()
	sync := NewTransactionSync(store, memory.NewCurrencyRegistry(usd), zap.NewNop())
	reader := newChanReader()
	reader.messages <- kafka.Message{Value: []byte("garbage")}
	reader.messages <- kafka.Message{
		Key:   []byte("S0003-1"),
		Value: []byte(`{"reference": "S0003-1", "provider_code": "tilopay", "amount": "12.50", "currency_id": 2}`),
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sync.Run(ctx, reader) }()

	assert.Eventually(t, func() bool {
		_, err := store.GetByReference(context.Background(), "S0003-1")
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	<-reader.closed
}
