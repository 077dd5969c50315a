package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

// StatusSubjectPrefix is followed by the transaction reference.
const StatusSubjectPrefix = "payment.tilopay.status."

// MsgPublisher is the part of *nats.Conn the notifier needs.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// StatusUpdate is pushed to listeners waiting on a checkout to settle.
type StatusUpdate struct {
	Reference    string    `json:"reference"`
	State        string    `json:"state"`
	StateMessage string    `json:"state_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NatsStatusNotifier implements interfaces.StatusNotifier. Delivery is
// fire-and-forget; a listener that is not subscribed misses the update.
type NatsStatusNotifier struct {
	conn MsgPublisher
}

func NewNatsStatusNotifier(conn MsgPublisher) *NatsStatusNotifier {
	return &NatsStatusNotifier{conn: conn}
}

func StatusSubject(reference string) string {
	return StatusSubjectPrefix + reference
}

func (n *NatsStatusNotifier) NotifyStatus(ctx context.Context, tx *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(StatusUpdate{
		Reference:    tx.Reference,
		State:        string(tx.State),
		StateMessage: tx.StateMessage,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}

	msg := nats.NewMsg(StatusSubject(tx.Reference))
	msg.Header.Set("Content-Type", "application/json")
	msg.Data = data
	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish status for %s: %w", tx.Reference, err)
	}
	return nil
}
