package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

func newTestLocator(store *mockStore) *Locator {
	return NewLocator(store, noop.NewTracerProvider().Tracer("test"), zap.NewNop())
}

func TestLocator_GenericMatchSkipsReturnData(t *testing.T) {
	store := new(mockStore)
	tx := pendingTx("S0001-1")
	data := models.NotificationData{"reference": "S0001-1", "returnData": "not a literal"}
	store.On("FindUnique", mock.Anything, models.ProviderTilopay, data).Return(&tx, nil)

	got, err := newTestLocator(store).Locate(context.Background(), models.ProviderTilopay, data)

	require.NoError(t, err)
	assert.Equal(t, "S0001-1", got.Reference)
	store.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocator_OtherProviderWithoutMatch(t *testing.T) {
	store := new(mockStore)
	data := models.NotificationData{"returnData": `{"reference": "S0001-1"}`}
	store.On("FindUnique", mock.Anything, "stripe", data).Return(nil, nil)

	_, err := newTestLocator(store).Locate(context.Background(), "stripe", data)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	store.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocator_FallsBackToReturnDataReference(t *testing.T) {
	store := new(mockStore)
	tx := pendingTx("S0001-1")
	data := models.NotificationData{"returnData": `{'reference': 'S0001-1', 'amount': 100.0}`}
	store.On("FindUnique", mock.Anything, models.ProviderTilopay, data).Return(nil, nil)
	store.On("FindAll", mock.Anything, "S0001-1", models.ProviderTilopay).Return([]*models.Transaction{&tx}, nil)

	got, err := newTestLocator(store).Locate(context.Background(), models.ProviderTilopay, data)

	require.NoError(t, err)
	assert.Same(t, &tx, got)
	store.AssertExpectations(t)
}

func TestLocator_SearchesReferenceVerbatim(t *testing.T) {
	store := new(mockStore)
	data := models.NotificationData{"returnData": `{"reference": " S0001-1 "}`}
	store.On("FindUnique", mock.Anything, models.ProviderTilopay, data).Return(nil, nil)
	store.On("FindAll", mock.Anything, " S0001-1 ", models.ProviderTilopay).Return([]*models.Transaction{}, nil)

	got, err := newTestLocator(store).Locate(context.Background(), models.ProviderTilopay, data)

	assert.Nil(t, got)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "no transaction found matching reference  S0001-1 ", verr.Msg)
	store.AssertExpectations(t)
}

func TestLocator_Failures(t *testing.T) {
	tests := []struct {
		name       string
		returnData string
		matches    []*models.Transaction
		findAllErr error
		wantMsg    string
	}{
		{
			name:       "malformed blob",
			returnData: `{"reference": `,
			wantMsg:    "invalid return data format",
		},
		{
			name:       "missing reference",
			returnData: `{"amount": "100.00"}`,
			wantMsg:    "missing reference in return data",
		},
		{
			name:       "empty reference",
			returnData: `{"reference": ""}`,
			wantMsg:    "missing reference in return data",
		},
		{
			name:       "blank reference is searched",
			returnData: `{"reference": "   "}`,
			matches:    []*models.Transaction{},
			wantMsg:    "no transaction found matching reference    ",
		},
		{
			name:       "absent blob",
			returnData: "",
			wantMsg:    "missing reference in return data",
		},
		{
			name:       "no match",
			returnData: `{"reference": "S0404-1"}`,
			matches:    []*models.Transaction{},
			wantMsg:    "no transaction found matching reference S0404-1",
		},
		{
			name:       "ambiguous match",
			returnData: `{"reference": "S0002-1"}`,
			matches:    []*models.Transaction{{Reference: "S0002-1"}, {Reference: "S0002-1"}},
			wantMsg:    "2 transactions match reference S0002-1",
		},
		{
			name:       "store failure",
			returnData: `{"reference": "S0003-1"}`,
			findAllErr: errors.New("connection reset"),
			wantMsg:    "transaction lookup for reference S0003-1 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			data := models.NotificationData{}
			if tt.returnData != "" {
				data[models.KeyReturnData] = tt.returnData
			}
			store.On("FindUnique", mock.Anything, models.ProviderTilopay, data).Return(nil, nil)
			store.On("FindAll", mock.Anything, mock.Anything, models.ProviderTilopay).Return(tt.matches, tt.findAllErr)

			got, err := newTestLocator(store).Locate(context.Background(), models.ProviderTilopay, data)

			assert.Nil(t, got)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Msg)
		})
	}
}
