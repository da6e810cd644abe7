package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetOfferingByID(ctx context.Context, id uuid.UUID) (*ServiceOffering, error)
	GetOfferingWithProduct(ctx context.Context, id uuid.UUID) (*ServiceOffering, error)
	GetStaffMemberByID(ctx context.Context, id uuid.UUID) (*StaffMember, error)
	ListOfferingsByStore(ctx context.Context, storeID uuid.UUID) ([]ServiceOffering, error)
	ListActiveStaff(ctx context.Context, offeringID uuid.UUID) ([]StaffMember, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) GetOfferingByID(ctx context.Context, id uuid.UUID) (*ServiceOffering, error) {
	var offering ServiceOffering
	err := r.db.WithContext(ctx).First(&offering, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

func (r *repository) GetOfferingWithProduct(ctx context.Context, id uuid.UUID) (*ServiceOffering, error) {
	var offering ServiceOffering
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Staff", "active = ?", true).
		First(&offering, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

func (r *repository) GetStaffMemberByID(ctx context.Context, id uuid.UUID) (*StaffMember, error) {
	var staff StaffMember
	err := r.db.WithContext(ctx).First(&staff, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *repository) ListOfferingsByStore(ctx context.Context, storeID uuid.UUID) ([]ServiceOffering, error) {
	var offerings []ServiceOffering
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = service_offerings.product_id").
		Where("products.store_id = ?", storeID).
		Preload("Product").
		Find(&offerings).Error
	if err != nil {
		return nil, err
	}
	return offerings, nil
}

func (r *repository) ListActiveStaff(ctx context.Context, offeringID uuid.UUID) ([]StaffMember, error) {
	var staff []StaffMember
	err := r.db.WithContext(ctx).
		Where("service_offering_id = ? AND active = ?", offeringID, true).
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	return staff, nil
}
