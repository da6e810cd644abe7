package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateWithItems(ctx context.Context, order *Order, items []OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByIDWithItems(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Order, int64, error)
	// SetPaymentOutcome advances both status columns in one write
	SetPaymentOutcome(ctx context.Context, id uuid.UUID, status OrderStatus, paymentStatus PaymentStatus) error
	// SetPaymentStatus touches only the money state, used for refunds where
	// fulfilment state is left for manual review
	SetPaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus PaymentStatus) error
	// CountUnpaidInGroup reports how many orders of a multi-store group still
	// await payment
	CountUnpaidInGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
	CreateSecuredPayment(ctx context.Context, sp *SecuredPayment) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateWithItems persists an order and its line items atomically
func (r *repository) CreateWithItems(ctx context.Context, order *Order, items []OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetByIDWithItems(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Preload("SecuredPayment").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Order, int64, error) {
	var orders []Order
	var total int64

	query := r.db.WithContext(ctx).Model(&Order{}).Where("customer_id = ?", customerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repository) SetPaymentOutcome(ctx context.Context, id uuid.UUID, status OrderStatus, paymentStatus PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"payment_status": paymentStatus,
		}).Error
}

func (r *repository) SetPaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ?", id).
		Update("payment_status", paymentStatus).Error
}

func (r *repository) CountUnpaidInGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("group_id = ? AND payment_status <> ?", groupID, PaymentPaid).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateSecuredPayment(ctx context.Context, sp *SecuredPayment) error {
	return r.db.WithContext(ctx).Create(sp).Error
}
