package database

import (
	"slotwise/internal/bookings"
	"slotwise/internal/catalog"
	"slotwise/internal/customers"
	"slotwise/internal/orders"
	"slotwise/internal/payments"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalog.Product{},
		&catalog.ServiceOffering{},
		&catalog.StaffMember{},
		&customers.Customer{},
		&bookings.Booking{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.SecuredPayment{},
		&payments.Transaction{},
		&payments.WebhookEvent{},
	)
}
