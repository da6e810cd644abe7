package bookings

import (
	"time"

	"slotwise/internal/catalog"

	"github.com/google/uuid"
)

// Booking occupies a slot on a calendar day. Times are stored as minutes from
// midnight so interval math never touches time zones; ScheduledDate carries
// the day.
type Booking struct {
	ID                uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID           uuid.UUID     `gorm:"type:uuid;index;not null" json:"store_id"`
	ServiceOfferingID uuid.UUID     `gorm:"type:uuid;index;not null" json:"service_offering_id"`
	StaffMemberID     *uuid.UUID    `gorm:"type:uuid;index" json:"staff_member_id,omitempty"`
	CustomerID        uuid.UUID     `gorm:"type:uuid;index;not null" json:"customer_id"`
	OrderID           *uuid.UUID    `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Status            BookingStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ScheduledDate     time.Time     `gorm:"type:date;index;not null" json:"scheduled_date"`
	StartMinute       int           `gorm:"not null" json:"start_minute"`
	EndMinute         int           `gorm:"not null" json:"end_minute"`
	Participants      int           `gorm:"default:1" json:"participants"`
	Notes             string        `json:"notes,omitempty"`
	CancelReason      string        `json:"cancel_reason,omitempty"`
	CancelledAt       *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// Relationships
	Offering *catalog.ServiceOffering `json:"offering,omitempty" gorm:"foreignKey:ServiceOfferingID"`
	Staff    *catalog.StaffMember     `json:"staff,omitempty" gorm:"foreignKey:StaffMemberID"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// Duration returns the booked length in minutes
func (b *Booking) Duration() int {
	return b.EndMinute - b.StartMinute
}

// Overlaps reports whether the booking intersects [startMin, endMin)
func (b *Booking) Overlaps(startMin, endMin int) bool {
	return b.StartMinute < endMin && b.EndMinute > startMin
}
