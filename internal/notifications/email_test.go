package notifications

import (
	"context"
	"net/smtp"
	"testing"

	"slotwise/internal/shared/config"
	"slotwise/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to  []string
	msg string
}

func capturingNotifier(t *testing.T) (*EmailNotifier, *[]sentMail) {
	t.Helper()
	var sent []sentMail
	n := NewEmailNotifier(&config.EmailConfig{
		SMTPHost:  "localhost",
		SMTPPort:  2525,
		FromEmail: "bookings@slotwise.test",
	}, logger.New())
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{to: to, msg: string(msg)})
		return nil
	}
	return n, &sent
}

func TestEmailNotifier_OrderCreated(t *testing.T) {
	n, sent := capturingNotifier(t)

	event := NewDomainEvent(EventOrderCreated, map[string]interface{}{
		"order_id":       "ord-123",
		"booking_id":     "bkg-456",
		"customer_email": "ada@example.com",
	})

	require.NoError(t, n.Handle(context.Background(), event))
	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, (*sent)[0].to)
	assert.Contains(t, (*sent)[0].msg, "ord-123")
	assert.Contains(t, (*sent)[0].msg, "bkg-456")
	assert.Contains(t, (*sent)[0].msg, "Subject: Your booking is reserved")
}

func TestEmailNotifier_SkipsWithoutRecipient(t *testing.T) {
	n, sent := capturingNotifier(t)

	event := NewDomainEvent(EventPaymentCompleted, map[string]interface{}{
		"order_id": "ord-123",
	})

	require.NoError(t, n.Handle(context.Background(), event))
	assert.Empty(t, *sent)
}

func TestEmailNotifier_UnknownEventTypeIsNoop(t *testing.T) {
	n, sent := capturingNotifier(t)

	event := NewDomainEvent("inventory.restocked", map[string]interface{}{
		"customer_email": "ada@example.com",
	})

	require.NoError(t, n.Handle(context.Background(), event))
	assert.Empty(t, *sent)
}

func TestDomainEvent_PartitionKey(t *testing.T) {
	byOrder := NewDomainEvent(EventPaymentCompleted, map[string]interface{}{
		"order_id":   "ord-1",
		"booking_id": "bkg-1",
	})
	assert.Equal(t, "ord-1", byOrder.PartitionKey())

	byBooking := NewDomainEvent(EventBookingCancelled, map[string]interface{}{
		"booking_id": "bkg-1",
	})
	assert.Equal(t, "bkg-1", byBooking.PartitionKey())

	fallback := NewDomainEvent(EventOrderCreated, map[string]interface{}{})
	assert.Equal(t, fallback.ID.String(), fallback.PartitionKey())
}

func TestDomainEvent_RoundTrip(t *testing.T) {
	event := NewDomainEvent(EventOrderCreated, map[string]interface{}{
		"order_id": "ord-1",
	})

	raw, err := event.ToJSON()
	require.NoError(t, err)

	decoded, err := FromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, "ord-1", decoded.Payload["order_id"])
}
