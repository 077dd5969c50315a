package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindUnique(ctx context.Context, providerCode string, data models.NotificationData) (*models.Transaction, error) {
	args := m.Called(ctx, providerCode, data)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *mockStore) FindAll(ctx context.Context, reference, providerCode string) ([]*models.Transaction, error) {
	args := m.Called(ctx, reference, providerCode)
	txs, _ := args.Get(0).([]*models.Transaction)
	return txs, args.Error(1)
}

func (m *mockStore) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	args := m.Called(ctx, reference)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *mockStore) InsertPending(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockStore) SaveResult(ctx context.Context, tx *models.Transaction, fromState models.TransactionState) (int64, error) {
	args := m.Called(ctx, tx, fromState)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishStateChanged(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyStatus(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

// brokenRegistry fails every lookup the way an unreachable database would.
type brokenRegistry struct{}

func (brokenRegistry) Resolve(ctx context.Context, id int64) (*models.Currency, error) {
	return nil, errors.New("connection refused")
}

var (
	usd = models.Currency{ID: 2, Name: "USD", Rounding: decimal.RequireFromString("0.01")}
	eur = models.Currency{ID: 3, Name: "EUR", Rounding: decimal.RequireFromString("0.01")}
	crc = models.Currency{ID: 40, Name: "CRC", Rounding: decimal.RequireFromString("1")}
)

func pendingTx(reference string) models.Transaction {
	return models.Transaction{
		Reference:    reference,
		ProviderCode: models.ProviderTilopay,
		Amount:       decimal.RequireFromString("100.00"),
		Currency:     usd,
		State:        models.StatePending,
	}
}
