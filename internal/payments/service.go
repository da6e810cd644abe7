package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"slotwise/internal/orders"
	"slotwise/internal/shared/config"
	"slotwise/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookPayload is the parsed gateway event. Amount arrives as number or
// string depending on the provider, so it is decoded as json.Number at the
// boundary.
type WebhookPayload struct {
	TransactionID string                 `json:"transaction_id"`
	Status        string                 `json:"status"`
	Amount        json.Number            `json:"amount"`
	Currency      string                 `json:"currency"`
	Message       string                 `json:"message"`
	Metadata      map[string]interface{} `json:"metadata"`
}

func (p *WebhookPayload) amountValue() (float64, bool) {
	if p.Amount == "" {
		return 0, false
	}
	v, err := p.Amount.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// WebhookOutcome is the HTTP result of processing one delivery
type WebhookOutcome struct {
	Code    int
	Message string
}

func accepted(msg string) WebhookOutcome {
	return WebhookOutcome{Code: http.StatusOK, Message: msg}
}

func rejected(code int, msg string) WebhookOutcome {
	return WebhookOutcome{Code: code, Message: msg}
}

// BookingConfirmer flips bookings when their order's payment settles.
// Declared here to avoid a circular dependency with the bookings package.
type BookingConfirmer interface {
	ConfirmByOrder(ctx context.Context, orderID uuid.UUID) error
	CancelByOrder(ctx context.Context, orderID uuid.UUID, reason string) error
}

// EventPublisher emits domain events; failures are logged and swallowed
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// InitiateParams starts a hosted checkout for a pending order
type InitiateParams struct {
	OrderID       uuid.UUID
	StoreID       uuid.UUID
	CustomerEmail string
	Amount        float64
	Currency      string
	Description   string
}

// CheckoutIntent is the local handle for a started payment
type CheckoutIntent struct {
	TransactionID         uuid.UUID
	ExternalTransactionID string
	PaymentURL            string
}

type Service interface {
	InitiateCheckout(ctx context.Context, params InitiateParams) (*CheckoutIntent, error)
	// HandleWebhook runs the reconciliation pipeline over one raw delivery.
	// It never panics the response into retry loops: only signature and
	// amount failures reject, everything else that can be recorded returns
	// 200.
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader, clientIP string) WebhookOutcome
	GetTransaction(ctx context.Context, externalID string) (*Transaction, error)
}

type service struct {
	repo      Repository
	orderRepo orders.Repository
	bookings  BookingConfirmer
	gateway   Gateway
	events    EventPublisher
	cfg       *config.PaymentConfig
	logger    *logger.Logger
	nowFn     func() time.Time
}

func NewService(
	repo Repository,
	orderRepo orders.Repository,
	bookings BookingConfirmer,
	gateway Gateway,
	events EventPublisher,
	cfg *config.PaymentConfig,
	log *logger.Logger,
) Service {
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		bookings:  bookings,
		gateway:   gateway,
		events:    events,
		cfg:       cfg,
		logger:    log,
		nowFn:     time.Now,
	}
}

func (s *service) InitiateCheckout(ctx context.Context, params InitiateParams) (*CheckoutIntent, error) {
	currency := params.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		Reference:     params.OrderID.String(),
		Amount:        params.Amount,
		Currency:      currency,
		Description:   params.Description,
		CustomerEmail: params.CustomerEmail,
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	txn := &Transaction{
		OrderID:               &params.OrderID,
		StoreID:               params.StoreID,
		Provider:              s.gateway.Name(),
		ExternalTransactionID: session.SessionID,
		Amount:                params.Amount,
		Currency:              currency,
		Status:                StatusProcessing,
		PaymentURL:            session.PaymentURL,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		// The gateway session exists but we have no local record to
		// reconcile its webhooks against. This needs operator attention.
		s.logger.ErrorWithContext(ctx, "Checkout session created but transaction insert failed", err,
			map[string]interface{}{
				"order_id":                params.OrderID.String(),
				"external_transaction_id": session.SessionID,
			})
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	return &CheckoutIntent{
		TransactionID:         txn.ID,
		ExternalTransactionID: txn.ExternalTransactionID,
		PaymentURL:            txn.PaymentURL,
	}, nil
}

func (s *service) GetTransaction(ctx context.Context, externalID string) (*Transaction, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}

func (s *service) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader, clientIP string) WebhookOutcome {
	// 1. Authenticate the raw bytes before parsing anything
	sigVerified := s.cfg.WebhookSecret != ""
	if s.cfg.WebhookSecret == "" {
		s.logger.LogUnauthenticatedWebhook(ctx, clientIP)
	} else if !VerifySignature(s.cfg.WebhookSecret, rawBody, signatureHeader) {
		s.logger.LogSecurityEvent(ctx, "webhook_signature_invalid",
			"signature missing or does not match request body", clientIP)
		return rejected(http.StatusUnauthorized, "invalid signature")
	}

	// 2. Parse into the known event shape
	var payload WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return rejected(http.StatusBadRequest, "malformed payload")
	}
	if payload.TransactionID == "" || payload.Status == "" {
		return rejected(http.StatusBadRequest, "transaction_id and status are required")
	}

	s.logger.LogWebhookReceived(ctx, s.gateway.Name(), payload.TransactionID, payload.Status)

	// 3. Resolve the local transaction created at checkout initiation
	txn, err := s.repo.GetByExternalID(ctx, payload.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.ErrorWithContext(ctx, "Webhook for unknown transaction", err,
				map[string]interface{}{"external_transaction_id": payload.TransactionID})
			return rejected(http.StatusInternalServerError, "unknown transaction")
		}
		return rejected(http.StatusInternalServerError, "transaction lookup failed")
	}

	mapped := MapGatewayStatus(payload.Status)
	dedupKey := fmt.Sprintf("%s:%s:%s", txn.Provider, txn.ExternalTransactionID, mapped)

	// 4. Idempotency: a delivery reporting the already-stored status is a
	// cheap no-op once the ledger has seen it
	if mapped == txn.Status {
		if seen, derr := s.repo.SeenRecently(ctx, dedupKey); derr == nil && seen {
			s.logger.LogWebhookDuplicate(ctx, txn.ExternalTransactionID, string(mapped))
			s.recordAttempt(ctx, txn, rawBody)
			return accepted("duplicate ignored")
		}
		appended, aerr := s.appendLedger(ctx, txn, mapped, &payload, rawBody, sigVerified)
		if aerr != nil {
			return rejected(http.StatusInternalServerError, "failed to record event")
		}
		s.recordAttempt(ctx, txn, rawBody)
		s.markSeen(ctx, dedupKey)
		if !appended {
			s.logger.LogWebhookDuplicate(ctx, txn.ExternalTransactionID, string(mapped))
			return accepted("duplicate ignored")
		}
		return accepted("recorded")
	}

	// 5. Amount validation before any state is touched
	if amt, ok := payload.amountValue(); ok && txn.OrderID != nil {
		order, oerr := s.orderRepo.GetByID(ctx, *txn.OrderID)
		if oerr != nil {
			return rejected(http.StatusInternalServerError, "order lookup failed")
		}
		if math.Abs(amt-order.AmountDue) > s.cfg.AmountTolerance {
			s.logger.LogSecurityEvent(ctx, "webhook_amount_mismatch",
				fmt.Sprintf("webhook reports %.2f, order charges %.2f (tolerance %.2f)",
					amt, order.AmountDue, s.cfg.AmountTolerance), clientIP)
			return rejected(http.StatusBadRequest, "amount mismatch")
		}
	}

	// 6. Apply the transition, or record the event as inert noise when the
	// state machine forbids it (regression, post-terminal chatter)
	if !CanTransition(txn.Status, mapped) {
		if _, aerr := s.appendLedger(ctx, txn, mapped, &payload, rawBody, sigVerified); aerr != nil {
			return rejected(http.StatusInternalServerError, "failed to record event")
		}
		s.recordAttempt(ctx, txn, rawBody)
		s.logger.InfoWithContext(ctx, "Webhook ignored by state machine", map[string]interface{}{
			"external_transaction_id": txn.ExternalTransactionID,
			"current_status":          txn.Status,
			"reported_status":         mapped,
		})
		return accepted("ignored")
	}

	applied, terr := s.applyTransition(ctx, txn, mapped, &payload)
	if terr != nil {
		return rejected(http.StatusInternalServerError, "failed to apply transition")
	}

	// 7. Audit trail regardless of which delivery won the race
	if _, aerr := s.appendLedger(ctx, txn, mapped, &payload, rawBody, sigVerified); aerr != nil {
		s.logger.ErrorWithContext(ctx, "Failed to append webhook ledger entry", aerr,
			map[string]interface{}{"external_transaction_id": txn.ExternalTransactionID})
	}
	s.recordAttempt(ctx, txn, rawBody)
	s.markSeen(ctx, dedupKey)

	if !applied {
		// A concurrent delivery moved the transaction first
		s.logger.LogWebhookDuplicate(ctx, txn.ExternalTransactionID, string(mapped))
		return accepted("duplicate ignored")
	}

	// 8. Fire side effects exactly once, after the winning transition.
	// They are best-effort: a failed notification must not trigger gateway
	// retries that could re-run financial transitions.
	s.dispatchSideEffects(ctx, txn, mapped, &payload)

	return accepted("processed")
}

func (s *service) applyTransition(ctx context.Context, txn *Transaction, to TransactionStatus, payload *WebhookPayload) (bool, error) {
	now := s.nowFn()
	updates := map[string]interface{}{"status": to}

	switch to {
	case StatusCompleted:
		updates["completed_at"] = &now
	case StatusFailed, StatusCancelled:
		updates["failed_at"] = &now
		if payload.Message != "" {
			updates["failure_message"] = payload.Message
		}
	case StatusRefunded:
		updates["refunded_at"] = &now
	}

	applied, err := s.repo.ApplyTransition(ctx, txn, txn.Status, updates)
	if err != nil {
		return false, err
	}
	if applied {
		txn.Status = to
	}
	return applied, nil
}

func (s *service) dispatchSideEffects(ctx context.Context, txn *Transaction, to TransactionStatus, payload *WebhookPayload) {
	switch to {
	case StatusCompleted:
		if txn.OrderID != nil {
			s.try(ctx, "mark order paid", func() error {
				return s.orderRepo.SetPaymentOutcome(ctx, *txn.OrderID, orders.StatusConfirmed, orders.PaymentPaid)
			})
			s.try(ctx, "confirm bookings", func() error {
				return s.bookings.ConfirmByOrder(ctx, *txn.OrderID)
			})
			s.checkGroupSettled(ctx, *txn.OrderID)
		}
		s.publish(ctx, "payment.completed", txn)

	case StatusFailed:
		if txn.OrderID != nil {
			s.try(ctx, "mark order failed", func() error {
				return s.orderRepo.SetPaymentOutcome(ctx, *txn.OrderID, orders.StatusCancelled, orders.PaymentFailed)
			})
			s.try(ctx, "release bookings", func() error {
				return s.bookings.CancelByOrder(ctx, *txn.OrderID, "payment_failed")
			})
		}
		s.publish(ctx, "payment.failed", txn)

	case StatusCancelled:
		if txn.OrderID != nil {
			s.try(ctx, "mark order failed", func() error {
				return s.orderRepo.SetPaymentOutcome(ctx, *txn.OrderID, orders.StatusCancelled, orders.PaymentFailed)
			})
			s.try(ctx, "release bookings", func() error {
				return s.bookings.CancelByOrder(ctx, *txn.OrderID, "payment_cancelled")
			})
		}
		s.publish(ctx, "payment.cancelled", txn)

	case StatusRefunded:
		// Money state only; fulfilment is left for manual review
		if txn.OrderID != nil {
			s.try(ctx, "mark order refunded", func() error {
				return s.orderRepo.SetPaymentStatus(ctx, *txn.OrderID, orders.PaymentRefunded)
			})
		}
		s.publish(ctx, "payment.refunded", txn)
	}
}

// checkGroupSettled announces when the last order of a multi-store checkout
// group gets paid. Best-effort like the rest of the side effects.
func (s *service) checkGroupSettled(ctx context.Context, orderID uuid.UUID) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil || order.GroupID == nil {
		return
	}
	unpaid, err := s.orderRepo.CountUnpaidInGroup(ctx, *order.GroupID)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Group settlement check failed", err,
			map[string]interface{}{"group_id": order.GroupID.String()})
		return
	}
	if unpaid > 0 {
		return
	}
	s.logger.InfoWithContext(ctx, "Order group fully paid", map[string]interface{}{
		"group_id": order.GroupID.String(),
	})
	if s.events != nil {
		payload := map[string]interface{}{
			"group_id": order.GroupID.String(),
			"order_id": orderID.String(),
		}
		if err := s.events.Publish(ctx, "order_group.paid", payload); err != nil {
			s.logger.ErrorWithContext(ctx, "Failed to publish group settlement event", err,
				map[string]interface{}{"group_id": order.GroupID.String()})
		}
	}
}

// try runs a best-effort follow-up, logging instead of propagating failure
func (s *service) try(ctx context.Context, op string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.ErrorWithContext(ctx, "Webhook side effect failed", err,
			map[string]interface{}{"operation": op})
	}
}

func (s *service) publish(ctx context.Context, eventType string, txn *Transaction) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"transaction_id":          txn.ID.String(),
		"external_transaction_id": txn.ExternalTransactionID,
		"status":                  string(txn.Status),
		"amount":                  txn.Amount,
		"currency":                txn.Currency,
	}
	if txn.OrderID != nil {
		payload["order_id"] = txn.OrderID.String()
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to publish payment event", err,
			map[string]interface{}{"event_type": eventType})
	}
}

func (s *service) appendLedger(ctx context.Context, txn *Transaction, status TransactionStatus, payload *WebhookPayload, raw []byte, sigVerified bool) (bool, error) {
	amt, _ := payload.amountValue()
	return s.repo.AppendEvent(ctx, &WebhookEvent{
		Provider:              txn.Provider,
		ExternalTransactionID: txn.ExternalTransactionID,
		Status:                status,
		Amount:                amt,
		SignatureValid:        sigVerified,
		RawPayload:            raw,
	})
}

func (s *service) recordAttempt(ctx context.Context, txn *Transaction, raw []byte) {
	if err := s.repo.RecordAttempt(ctx, txn, raw); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to record webhook attempt", err,
			map[string]interface{}{"transaction_id": txn.ID.String()})
	}
}

func (s *service) markSeen(ctx context.Context, dedupKey string) {
	if err := s.repo.MarkSeen(ctx, dedupKey); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to mark webhook dedup key", err,
			map[string]interface{}{"key": dedupKey})
	}
}
