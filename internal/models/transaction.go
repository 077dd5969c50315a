package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderTilopay is the provider code this service reconciles.
const ProviderTilopay = "tilopay"

type TransactionState string

const (
	StatePending  TransactionState = "pending"
	StateDone     TransactionState = "done"
	StateCanceled TransactionState = "canceled"
	StateError    TransactionState = "error"
)

// IsTerminal reports whether no further transition is expected.
func (s TransactionState) IsTerminal() bool {
	return s == StateDone || s == StateCanceled || s == StateError
}

// Transaction is one attempted payment. Amount and Currency are fixed at
// creation; the reconciler mutates State, StateMessage and ProviderReference.
type Transaction struct {
	Reference         string
	ProviderCode      string
	Amount            decimal.Decimal
	Currency          Currency
	ProviderReference string
	State             TransactionState
	PreviousState     TransactionState
	StateMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t *Transaction) SetDone() {
	t.transition(StateDone, "")
}

func (t *Transaction) SetCanceled(message string) {
	t.transition(StateCanceled, message)
}

func (t *Transaction) SetError(message string) {
	t.transition(StateError, message)
}

// transition does not check the current state: replaying a notification on a
// terminal transaction overwrites it.
func (t *Transaction) transition(to TransactionState, message string) {
	t.PreviousState = t.State
	t.State = to
	t.StateMessage = message
}

// TransactionCreatedEvent is published by the checkout when it opens a
// payment attempt for this provider.
type TransactionCreatedEvent struct {
	Reference    string `json:"reference"`
	ProviderCode string `json:"provider_code"`
	Amount       string `json:"amount"`
	CurrencyID   int64  `json:"currency_id"`
}
