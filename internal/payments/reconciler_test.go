package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"slotwise/internal/orders"
	"slotwise/internal/shared/config"
	"slotwise/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

// --- fakes ---

type fakePaymentRepo struct {
	txns     map[string]*Transaction // keyed by external id
	ledger   map[string]bool         // provider:external:status
	attempts map[uuid.UUID]int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		txns:     make(map[string]*Transaction),
		ledger:   make(map[string]bool),
		attempts: make(map[uuid.UUID]int),
	}
}

func (f *fakePaymentRepo) Create(_ context.Context, txn *Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	f.txns[txn.ExternalTransactionID] = txn
	return nil
}

func (f *fakePaymentRepo) GetByExternalID(_ context.Context, externalID string) (*Transaction, error) {
	txn, ok := f.txns[externalID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *txn
	return &cp, nil
}

func (f *fakePaymentRepo) ApplyTransition(_ context.Context, txn *Transaction, from TransactionStatus, updates map[string]interface{}) (bool, error) {
	stored, ok := f.txns[txn.ExternalTransactionID]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = updates["status"].(TransactionStatus)
	if msg, ok := updates["failure_message"].(string); ok {
		stored.FailureMessage = msg
	}
	return true, nil
}

func (f *fakePaymentRepo) RecordAttempt(_ context.Context, txn *Transaction, raw []byte) error {
	f.attempts[txn.ID]++
	if stored, ok := f.txns[txn.ExternalTransactionID]; ok {
		stored.WebhookAttempts++
		stored.LastWebhookPayload = raw
	}
	return nil
}

func (f *fakePaymentRepo) AppendEvent(_ context.Context, event *WebhookEvent) (bool, error) {
	key := fmt.Sprintf("%s:%s:%s", event.Provider, event.ExternalTransactionID, event.Status)
	if f.ledger[key] {
		return false, nil
	}
	f.ledger[key] = true
	return true, nil
}

func (f *fakePaymentRepo) SeenRecently(_ context.Context, _ string) (bool, error) {
	// Exercise the database ledger path in tests
	return false, nil
}

func (f *fakePaymentRepo) MarkSeen(_ context.Context, _ string) error {
	return nil
}

type fakeOrderStore struct {
	orders map[uuid.UUID]*orders.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uuid.UUID]*orders.Order)}
}

func (f *fakeOrderStore) CreateWithItems(_ context.Context, order *orders.Order, items []orders.OrderItem) error {
	order.ID = uuid.New()
	order.Items = items
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id uuid.UUID) (*orders.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) GetByIDWithItems(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeOrderStore) ListByCustomer(_ context.Context, _ uuid.UUID, _, _ int) ([]orders.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeOrderStore) SetPaymentOutcome(_ context.Context, id uuid.UUID, status orders.OrderStatus, paymentStatus orders.PaymentStatus) error {
	if o, ok := f.orders[id]; ok {
		o.Status = status
		o.PaymentStatus = paymentStatus
	}
	return nil
}

func (f *fakeOrderStore) SetPaymentStatus(_ context.Context, id uuid.UUID, paymentStatus orders.PaymentStatus) error {
	if o, ok := f.orders[id]; ok {
		o.PaymentStatus = paymentStatus
	}
	return nil
}

func (f *fakeOrderStore) CountUnpaidInGroup(_ context.Context, groupID uuid.UUID) (int64, error) {
	var unpaid int64
	for _, o := range f.orders {
		if o.GroupID != nil && *o.GroupID == groupID && o.PaymentStatus != orders.PaymentPaid {
			unpaid++
		}
	}
	return unpaid, nil
}

func (f *fakeOrderStore) CreateSecuredPayment(_ context.Context, sp *orders.SecuredPayment) error {
	return nil
}

type fakeConfirmer struct {
	confirmed []uuid.UUID
	cancelled map[uuid.UUID]string
}

func newFakeConfirmer() *fakeConfirmer {
	return &fakeConfirmer{cancelled: make(map[uuid.UUID]string)}
}

func (f *fakeConfirmer) ConfirmByOrder(_ context.Context, orderID uuid.UUID) error {
	f.confirmed = append(f.confirmed, orderID)
	return nil
}

func (f *fakeConfirmer) CancelByOrder(_ context.Context, orderID uuid.UUID, reason string) error {
	f.cancelled[orderID] = reason
	return nil
}

type fakeGateway struct {
	fail bool
}

func (f *fakeGateway) Name() string { return "slotpay" }

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, _ CheckoutRequest) (*CheckoutSession, error) {
	if f.fail {
		return nil, errors.New("gateway unavailable")
	}
	return &CheckoutSession{SessionID: "cs_" + uuid.NewString(), PaymentURL: "https://pay.example.com/cs"}, nil
}

type fakePublisher struct {
	events map[string]int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(map[string]int)}
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, _ map[string]interface{}) error {
	f.events[eventType]++
	return nil
}

// --- harness ---

type reconcilerHarness struct {
	svc       Service
	repo      *fakePaymentRepo
	orders    *fakeOrderStore
	confirmer *fakeConfirmer
	publisher *fakePublisher
	orderID   uuid.UUID
}

func newReconcilerHarness(t *testing.T, secret string) *reconcilerHarness {
	t.Helper()

	h := &reconcilerHarness{
		repo:      newFakePaymentRepo(),
		orders:    newFakeOrderStore(),
		confirmer: newFakeConfirmer(),
		publisher: newFakePublisher(),
	}

	order := &orders.Order{
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentPending,
		TotalAmount:   100,
		AmountDue:     100,
		Currency:      "USD",
	}
	require.NoError(t, h.orders.CreateWithItems(context.Background(), order, nil))
	h.orderID = order.ID

	cfg := &config.PaymentConfig{
		WebhookSecret:   secret,
		AmountTolerance: 0.01,
		DefaultCurrency: "USD",
	}
	h.svc = NewService(h.repo, h.orders, h.confirmer, &fakeGateway{}, h.publisher, cfg, logger.New())
	return h
}

// seedTransaction mimics checkout initiation: a processing transaction
// linked to the pending order.
func (h *reconcilerHarness) seedTransaction(t *testing.T, externalID string) *Transaction {
	t.Helper()
	txn := &Transaction{
		OrderID:               &h.orderID,
		StoreID:               uuid.New(),
		Provider:              "slotpay",
		ExternalTransactionID: externalID,
		Amount:                100,
		Currency:              "USD",
		Status:                StatusProcessing,
	}
	require.NoError(t, h.repo.Create(context.Background(), txn))
	return txn
}

func signedWebhook(t *testing.T, secret string, payload map[string]interface{}) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return raw, "sha256=" + ComputeSignature(secret, raw)
}

// --- tests ---

func TestHandleWebhook_CompletedHappyPath(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_100")

	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_100",
		"status":         "completed",
		"amount":         100,
		"currency":       "USD",
	})

	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "203.0.113.9")

	assert.Equal(t, http.StatusOK, outcome.Code)
	assert.Equal(t, StatusCompleted, h.repo.txns["tx_100"].Status)

	order := h.orders.orders[h.orderID]
	assert.Equal(t, orders.StatusConfirmed, order.Status)
	assert.Equal(t, orders.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, []uuid.UUID{h.orderID}, h.confirmer.confirmed)
	assert.Equal(t, 1, h.publisher.events["payment.completed"])
}

func TestHandleWebhook_ReplayIsIdempotent(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_replay")

	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_replay",
		"status":         "completed",
		"amount":         100,
	})

	for i := 0; i < 5; i++ {
		outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "203.0.113.9")
		assert.Equal(t, http.StatusOK, outcome.Code, "delivery %d", i+1)
	}

	assert.Equal(t, StatusCompleted, h.repo.txns["tx_replay"].Status)
	assert.Len(t, h.confirmer.confirmed, 1, "bookings confirm exactly once")
	assert.Equal(t, 1, h.publisher.events["payment.completed"], "notification fires exactly once")
	assert.Equal(t, 5, h.repo.txns["tx_replay"].WebhookAttempts, "every delivery is counted")
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_sig")

	raw, _ := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_sig",
		"status":         "completed",
	})

	outcome := h.svc.HandleWebhook(context.Background(), raw, "sha256=deadbeef", "198.51.100.7")

	assert.Equal(t, http.StatusUnauthorized, outcome.Code)
	assert.Equal(t, StatusProcessing, h.repo.txns["tx_sig"].Status, "no state touched")
	assert.Zero(t, h.repo.txns["tx_sig"].WebhookAttempts)
}

func TestHandleWebhook_NoSecretConfiguredStillProcesses(t *testing.T) {
	h := newReconcilerHarness(t, "")
	h.seedTransaction(t, "tx_nosecret")

	raw, err := json.Marshal(map[string]interface{}{
		"transaction_id": "tx_nosecret",
		"status":         "completed",
		"amount":         100,
	})
	require.NoError(t, err)

	outcome := h.svc.HandleWebhook(context.Background(), raw, "", "203.0.113.9")

	assert.Equal(t, http.StatusOK, outcome.Code)
	assert.Equal(t, StatusCompleted, h.repo.txns["tx_nosecret"].Status)
}

func TestHandleWebhook_MalformedPayload(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)

	raw := []byte(`{"status": `)
	sig := "sha256=" + ComputeSignature(testSecret, raw)

	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "203.0.113.9")
	assert.Equal(t, http.StatusBadRequest, outcome.Code)
}

func TestHandleWebhook_UnknownTransaction(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)

	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_ghost",
		"status":         "completed",
	})

	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "203.0.113.9")
	assert.Equal(t, http.StatusInternalServerError, outcome.Code)
}

func TestHandleWebhook_AmountToleranceBoundary(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_amount")

	// Exactly at tolerance: accepted
	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_amount",
		"status":         "completed",
		"amount":         100.01,
	})
	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "203.0.113.9")
	assert.Equal(t, http.StatusOK, outcome.Code)
	assert.Equal(t, StatusCompleted, h.repo.txns["tx_amount"].Status)
}

func TestHandleWebhook_AmountBeyondToleranceRejected(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_tamper")

	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_tamper",
		"status":         "completed",
		"amount":         100.02,
	})

	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "198.51.100.7")

	assert.Equal(t, http.StatusBadRequest, outcome.Code)
	assert.Equal(t, StatusProcessing, h.repo.txns["tx_tamper"].Status, "zero state mutation")
	assert.Equal(t, orders.PaymentPending, h.orders.orders[h.orderID].PaymentStatus)
	assert.Empty(t, h.confirmer.confirmed)
}

func TestHandleWebhook_StringAmountAccepted(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_str")

	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_str",
		"status":         "completed",
		"amount":         "100.00",
	})

	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "203.0.113.9")
	assert.Equal(t, http.StatusOK, outcome.Code)
	assert.Equal(t, StatusCompleted, h.repo.txns["tx_str"].Status)
}

func TestHandleWebhook_FailedReleasesBookings(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_fail")

	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_fail",
		"status":         "failed",
		"amount":         100,
		"message":        "card declined",
	})

	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "203.0.113.9")

	assert.Equal(t, http.StatusOK, outcome.Code)
	assert.Equal(t, StatusFailed, h.repo.txns["tx_fail"].Status)
	assert.Equal(t, "card declined", h.repo.txns["tx_fail"].FailureMessage)

	order := h.orders.orders[h.orderID]
	assert.Equal(t, orders.StatusCancelled, order.Status)
	assert.Equal(t, orders.PaymentFailed, order.PaymentStatus)
	assert.Equal(t, "payment_failed", h.confirmer.cancelled[h.orderID])
	assert.Equal(t, 1, h.publisher.events["payment.failed"])
}

func TestHandleWebhook_RefundAfterCompleted(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_refund")

	complete, sigC := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_refund",
		"status":         "completed",
		"amount":         100,
	})
	require.Equal(t, http.StatusOK, h.svc.HandleWebhook(context.Background(), complete, sigC, "ip").Code)

	refund, sigR := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_refund",
		"status":         "refunded",
		"amount":         100,
	})
	outcome := h.svc.HandleWebhook(context.Background(), refund, sigR, "ip")

	assert.Equal(t, http.StatusOK, outcome.Code)
	assert.Equal(t, StatusRefunded, h.repo.txns["tx_refund"].Status)
	assert.Equal(t, orders.PaymentRefunded, h.orders.orders[h.orderID].PaymentStatus)
	assert.Empty(t, h.confirmer.cancelled, "refund does not auto-cancel bookings")
	assert.Equal(t, 1, h.publisher.events["payment.refunded"])
}

func TestHandleWebhook_RegressionIgnored(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_regress")

	complete, sigC := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_regress",
		"status":         "completed",
		"amount":         100,
	})
	require.Equal(t, http.StatusOK, h.svc.HandleWebhook(context.Background(), complete, sigC, "ip").Code)

	// A stale failed event arrives after completion
	stale, sigS := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_regress",
		"status":         "failed",
		"amount":         100,
	})
	outcome := h.svc.HandleWebhook(context.Background(), stale, sigS, "ip")

	assert.Equal(t, http.StatusOK, outcome.Code, "inert, not an error")
	assert.Equal(t, StatusCompleted, h.repo.txns["tx_regress"].Status)
	assert.Empty(t, h.confirmer.cancelled)
}

func TestHandleWebhook_UnknownStatusInert(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	h.seedTransaction(t, "tx_weird")

	raw, sig := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_weird",
		"status":         "pending_review",
		"amount":         100,
	})

	outcome := h.svc.HandleWebhook(context.Background(), raw, sig, "ip")

	assert.Equal(t, http.StatusOK, outcome.Code)
	assert.Equal(t, StatusProcessing, h.repo.txns["tx_weird"].Status, "unmapped status never advances state")
	assert.Empty(t, h.confirmer.confirmed)
}

func TestHandleWebhook_GroupSettlesOnLastPayment(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)

	groupID := uuid.New()
	h.orders.orders[h.orderID].GroupID = &groupID

	sibling := &orders.Order{
		GroupID:       &groupID,
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentPending,
		TotalAmount:   100,
		AmountDue:     100,
		Currency:      "USD",
	}
	require.NoError(t, h.orders.CreateWithItems(context.Background(), sibling, nil))

	siblingTxn := &Transaction{
		OrderID:               &sibling.ID,
		StoreID:               uuid.New(),
		Provider:              "slotpay",
		ExternalTransactionID: "tx_grp_2",
		Amount:                100,
		Currency:              "USD",
		Status:                StatusProcessing,
	}
	require.NoError(t, h.repo.Create(context.Background(), siblingTxn))
	h.seedTransaction(t, "tx_grp_1")

	first, sig1 := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_grp_1",
		"status":         "completed",
		"amount":         100,
	})
	require.Equal(t, http.StatusOK, h.svc.HandleWebhook(context.Background(), first, sig1, "ip").Code)
	assert.Zero(t, h.publisher.events["order_group.paid"], "sibling still unpaid")

	second, sig2 := signedWebhook(t, testSecret, map[string]interface{}{
		"transaction_id": "tx_grp_2",
		"status":         "completed",
		"amount":         100,
	})
	require.Equal(t, http.StatusOK, h.svc.HandleWebhook(context.Background(), second, sig2, "ip").Code)
	assert.Equal(t, 1, h.publisher.events["order_group.paid"], "group settles once, on the last payment")
}

func TestInitiateCheckout_CreatesProcessingTransaction(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)

	intent, err := h.svc.InitiateCheckout(context.Background(), InitiateParams{
		OrderID:       h.orderID,
		StoreID:       uuid.New(),
		CustomerEmail: "pat@example.com",
		Amount:        100,
		Description:   "Deep Tissue Massage",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, intent.ExternalTransactionID)
	assert.Equal(t, "https://pay.example.com/cs", intent.PaymentURL)

	txn := h.repo.txns[intent.ExternalTransactionID]
	require.NotNil(t, txn)
	assert.Equal(t, StatusProcessing, txn.Status)
	assert.Equal(t, "USD", txn.Currency, "default currency applied")
	assert.Equal(t, h.orderID, *txn.OrderID)
}

func TestInitiateCheckout_GatewayFailure(t *testing.T) {
	h := newReconcilerHarness(t, testSecret)
	cfg := &config.PaymentConfig{DefaultCurrency: "USD"}
	svc := NewService(h.repo, h.orders, h.confirmer, &fakeGateway{fail: true}, h.publisher, cfg, logger.New())

	intent, err := svc.InitiateCheckout(context.Background(), InitiateParams{
		OrderID: h.orderID,
		Amount:  100,
	})

	require.Error(t, err)
	assert.Nil(t, intent)
	assert.Empty(t, h.repo.txns, "no orphan transaction on gateway failure")
}
