package orders

import (
	"time"

	"slotwise/internal/catalog"
	"slotwise/internal/customers"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Order is the financial record of a checkout attempt. It is created pending
// by the booking saga and advanced by payment webhooks: Status tracks
// fulfilment, PaymentStatus tracks money.
type Order struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID         uuid.UUID           `gorm:"type:uuid;index;not null" json:"store_id"`
	CustomerID      uuid.UUID           `gorm:"type:uuid;index;not null" json:"customer_id"`
	// GroupID ties sibling orders of one multi-store checkout together
	GroupID         *uuid.UUID          `gorm:"type:uuid;index" json:"group_id,omitempty"`
	Status          OrderStatus         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus       `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`
	TotalAmount     float64             `gorm:"not null" json:"total_amount"`
	AmountDue       float64             `gorm:"not null" json:"amount_due"` // collected at checkout
	RemainingAmount float64             `json:"remaining_amount"`
	Currency        string              `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	PaymentType     catalog.PaymentType `gorm:"type:varchar(20);default:'full'" json:"payment_type"`
	PercentagePaid  float64             `json:"percentage_paid"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	// Relationships
	Customer       *customers.Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items          []OrderItem         `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	SecuredPayment *SecuredPayment     `json:"secured_payment,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots a purchased line at checkout time. Later catalog edits
// must not rewrite what the buyer agreed to, so price and booking details are
// copied into the row. Service items carry a back-reference to their booking.
type OrderItem struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrderID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID uuid.UUID      `gorm:"type:uuid;not null" json:"product_id"`
	BookingID *uuid.UUID     `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	Name      string         `gorm:"not null" json:"name"`
	Quantity  int            `gorm:"default:1" json:"quantity"`
	UnitPrice float64        `gorm:"not null" json:"unit_price"`
	Subtotal  float64        `gorm:"not null" json:"subtotal"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SecuredPayment escrows the balance owed on delivery_secured products: a
// deposit is charged online and the remainder is held until the service is
// delivered.
type SecuredPayment struct {
	ID                uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrderID           uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`
	TotalAmount       float64       `gorm:"not null" json:"total_amount"`
	HeldAmount        float64       `gorm:"not null" json:"held_amount"`
	Status            SecuredStatus `gorm:"type:varchar(20);default:'held'" json:"status"`
	ReleaseConditions string        `json:"release_conditions,omitempty"`
	ReleasedAt        *time.Time    `json:"released_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// BookingMetadata is the shape serialized into OrderItem.Metadata for
// service line items.
type BookingMetadata struct {
	BookingID     string `json:"booking_id"`
	OfferingID    string `json:"offering_id"`
	StaffMemberID string `json:"staff_member_id,omitempty"`
	ScheduledDate string `json:"scheduled_date"`
	StartMinute   int    `json:"start_minute"`
	EndMinute     int    `json:"end_minute"`
	Participants  int    `json:"participants"`
}

// TableName sets the table name for Order
func (Order) TableName() string {
	return "orders"
}

// TableName sets the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// TableName sets the table name for SecuredPayment
func (SecuredPayment) TableName() string {
	return "secured_payments"
}
