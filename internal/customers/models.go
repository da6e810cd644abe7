package customers

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a per-store buyer record. Guests are created on first checkout,
// keyed by (store_id, email); repeat purchases reuse the same row.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;index;not null" json:"store_id"`
	Email     string    `gorm:"not null" json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Customer
func (Customer) TableName() string {
	return "customers"
}
