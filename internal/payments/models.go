package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transaction is the local record of a gateway payment and the single source
// of truth for webhook idempotency. It is created when checkout starts and
// advanced only by verified webhook events.
type Transaction struct {
	ID                    uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrderID               *uuid.UUID        `gorm:"type:uuid;index" json:"order_id,omitempty"`
	CustomerID            *uuid.UUID        `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	StoreID               uuid.UUID         `gorm:"type:uuid;index;not null" json:"store_id"`
	Provider              string            `gorm:"type:varchar(40);not null" json:"provider"`
	ExternalTransactionID string            `gorm:"uniqueIndex;not null" json:"external_transaction_id"`
	Amount                float64           `gorm:"not null" json:"amount"`
	Currency              string            `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Status                TransactionStatus `gorm:"type:varchar(20);default:'processing';index" json:"status"`
	PaymentURL            string            `json:"payment_url,omitempty"`
	FailureMessage        string            `json:"failure_message,omitempty"`
	WebhookAttempts       int               `gorm:"default:0" json:"webhook_attempts"`
	LastWebhookPayload    datatypes.JSON    `json:"last_webhook_payload,omitempty"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	FailedAt              *time.Time        `json:"failed_at,omitempty"`
	RefundedAt            *time.Time        `json:"refunded_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// WebhookEvent is the append-only ledger of processed deliveries. The unique
// index on (provider, external_transaction_id, status) makes the insert the
// idempotency check: a duplicate delivery simply fails to append.
type WebhookEvent struct {
	ID                    uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Provider              string            `gorm:"type:varchar(40);not null" json:"provider"`
	ExternalTransactionID string            `gorm:"not null" json:"external_transaction_id"`
	Status                TransactionStatus `gorm:"type:varchar(20);not null" json:"status"`
	Amount                float64           `json:"amount"`
	SignatureValid        bool              `json:"signature_valid"`
	RawPayload            datatypes.JSON    `json:"raw_payload,omitempty"`
	ReceivedAt            time.Time         `gorm:"autoCreateTime" json:"received_at"`
}

// TableName sets the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// TableName sets the table name for WebhookEvent
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
