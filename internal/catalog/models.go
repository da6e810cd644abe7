package catalog

import (
	"time"

	"github.com/google/uuid"
)

// PricingType determines how a service offering's total price is derived
type PricingType string

const (
	PricingFlat           PricingType = "flat"
	PricingPerParticipant PricingType = "per_participant"
	PricingPerHour        PricingType = "per_hour"
)

// PaymentType determines how much of the total is collected at checkout
type PaymentType string

const (
	PaymentFull            PaymentType = "full"
	PaymentPercentage      PaymentType = "percentage"
	PaymentDeliverySecured PaymentType = "delivery_secured"
)

// ProductType distinguishes service items from physical/digital ones
type ProductType string

const (
	ProductTypeService  ProductType = "service"
	ProductTypePhysical ProductType = "physical"
	ProductTypeDigital  ProductType = "digital"
)

// Product is the sellable unit a service offering is priced through
type Product struct {
	ID             uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID        uuid.UUID   `gorm:"type:uuid;index;not null" json:"store_id"`
	Name           string      `gorm:"not null" json:"name"`
	ProductType    ProductType `gorm:"type:varchar(20);default:'service'" json:"product_type"`
	Price          float64     `gorm:"not null" json:"price"`
	Currency       string      `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	PaymentType    PaymentType `gorm:"type:varchar(20);default:'full'" json:"payment_type"`
	PercentagePaid float64     `json:"percentage_paid"` // deposit share when PaymentType is percentage
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ServiceOffering holds the booking rules for an appointment-based service.
// It is read-only input during a booking attempt; nil limits mean "unlimited".
type ServiceOffering struct {
	ID                 uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductID          uuid.UUID   `gorm:"type:uuid;index;not null" json:"product_id"`
	DurationMinutes    int         `gorm:"not null" json:"duration_minutes"`
	MaxParticipants    *int        `json:"max_participants,omitempty"`
	AdvanceBookingDays *int        `json:"advance_booking_days,omitempty"`
	MaxBookingsPerDay  *int        `json:"max_bookings_per_day,omitempty"`
	BufferBeforeMin    int         `json:"buffer_time_before"`
	BufferAfterMin     int         `json:"buffer_time_after"`
	PricingType        PricingType `gorm:"type:varchar(20);default:'flat'" json:"pricing_type"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	// Relationships
	Product *Product      `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Staff   []StaffMember `json:"staff,omitempty" gorm:"foreignKey:ServiceOfferingID"`
}

// StaffMember is an optional resource a booking can be pinned to
type StaffMember struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ServiceOfferingID uuid.UUID `gorm:"type:uuid;index;not null" json:"service_offering_id"`
	Name              string    `gorm:"not null" json:"name"`
	Active            bool      `gorm:"default:true" json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName sets the table name for Product
func (Product) TableName() string {
	return "products"
}

// TableName sets the table name for ServiceOffering
func (ServiceOffering) TableName() string {
	return "service_offerings"
}

// TableName sets the table name for StaffMember
func (StaffMember) TableName() string {
	return "staff_members"
}

// HasBuffer reports whether the offering requires idle time around bookings
func (o *ServiceOffering) HasBuffer() bool {
	return o.BufferBeforeMin > 0 || o.BufferAfterMin > 0
}
