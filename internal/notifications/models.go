package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the booking saga and the payment reconciler
const (
	EventBookingCreated   = "booking.created"
	EventOrderCreated     = "order.created"
	EventBookingCancelled = "booking.cancelled"
	EventGiftCardRedeemed = "giftcard.redeemed"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentCancelled = "payment.cancelled"
	EventPaymentRefunded  = "payment.refunded"
)

// DomainEvent is the wire shape for everything published to the event topic
type DomainEvent struct {
	ID         uuid.UUID              `json:"id"`
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// NewDomainEvent stamps identity and time onto a payload
func NewDomainEvent(eventType string, payload map[string]interface{}) *DomainEvent {
	return &DomainEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// PartitionKey routes all events of one order to the same partition so
// consumers observe them in order.
func (e *DomainEvent) PartitionKey() string {
	if orderID, ok := e.Payload["order_id"].(string); ok && orderID != "" {
		return orderID
	}
	if bookingID, ok := e.Payload["booking_id"].(string); ok && bookingID != "" {
		return bookingID
	}
	return e.ID.String()
}

// ToJSON serializes the event for the wire
func (e *DomainEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an event off the wire
func FromJSON(data []byte) (*DomainEvent, error) {
	var e DomainEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// payloadString safely reads a string field from the event payload
func (e *DomainEvent) payloadString(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}
