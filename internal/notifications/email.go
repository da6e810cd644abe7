package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"slotwise/internal/shared/config"
	"slotwise/pkg/logger"
)

// EmailNotifier turns domain events into customer emails. Events without a
// customer_email in the payload are acknowledged and skipped: payment events
// carry only transaction identity, and the storefront covers those surfaces.
type EmailNotifier struct {
	cfg    *config.EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *logger.Logger
}

func NewEmailNotifier(cfg *config.EmailConfig, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: log,
	}
}

func (n *EmailNotifier) Handle(ctx context.Context, event *DomainEvent) error {
	to := event.payloadString("customer_email")
	if to == "" {
		n.logger.InfoWithContext(ctx, "Event has no recipient, skipping email", map[string]interface{}{
			"event_type": event.Type,
		})
		return nil
	}

	subject, body := n.compose(event)
	if subject == "" {
		return nil
	}

	if err := n.deliver(to, subject, body); err != nil {
		return fmt.Errorf("failed to send %s email: %w", event.Type, err)
	}

	n.logger.InfoWithContext(ctx, "Notification email sent", map[string]interface{}{
		"event_type": event.Type,
		"recipient":  to,
	})
	return nil
}

func (n *EmailNotifier) compose(event *DomainEvent) (subject, body string) {
	orderID := event.payloadString("order_id")
	bookingID := event.payloadString("booking_id")

	switch event.Type {
	case EventOrderCreated:
		subject = "Your booking is reserved"
		body = fmt.Sprintf(
			"Thanks for your order!\n\n"+
				"Your appointment slot is held while we wait for payment.\n"+
				"Order reference: %s\nBooking reference: %s\n\n"+
				"Complete the payment using the link from checkout to confirm your booking.",
			orderID, bookingID)

	case EventPaymentCompleted:
		subject = "Payment received, booking confirmed"
		body = fmt.Sprintf(
			"Your payment has been received and your booking is confirmed.\n\n"+
				"Order reference: %s\n\nWe look forward to seeing you.",
			orderID)

	case EventPaymentFailed:
		subject = "Payment failed"
		body = fmt.Sprintf(
			"Unfortunately your payment did not go through and the reserved slot has been released.\n\n"+
				"Order reference: %s\n\nYou can place a new order at any time.",
			orderID)

	case EventPaymentCancelled:
		subject = "Payment cancelled"
		body = fmt.Sprintf(
			"Your payment was cancelled and the reserved slot has been released.\n\n"+
				"Order reference: %s",
			orderID)

	case EventPaymentRefunded:
		subject = "Your refund is on its way"
		body = fmt.Sprintf(
			"We have processed a refund for your order.\n\n"+
				"Order reference: %s\n\nDepending on your bank it may take a few days to appear.",
			orderID)

	case EventBookingCancelled:
		subject = "Booking cancelled"
		body = fmt.Sprintf(
			"Your booking has been cancelled.\n\nBooking reference: %s\nReason: %s",
			bookingID, event.payloadString("reason"))
	}
	return subject, body
}

func (n *EmailNotifier) deliver(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	var auth smtp.Auth
	if n.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", n.cfg.SMTPUsername, n.cfg.SMTPPassword, n.cfg.SMTPHost)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	return n.send(addr, auth, n.cfg.FromEmail, []string{to}, []byte(msg.String()))
}
