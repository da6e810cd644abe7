package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindOrCreate returns the store's customer for this email, creating the
	// record on first contact. Email matching is case-insensitive.
	FindOrCreate(ctx context.Context, storeID uuid.UUID, email, name, phone string) (*Customer, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	var customer Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindOrCreate(ctx context.Context, storeID uuid.UUID, email, name, phone string) (*Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var customer Customer
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND lower(email) = ?", storeID, email).
		First(&customer).Error
	if err == nil {
		// Backfill contact details supplied at checkout
		updates := map[string]interface{}{}
		if name != "" && customer.Name == "" {
			updates["name"] = name
		}
		if phone != "" && customer.Phone == "" {
			updates["phone"] = phone
		}
		if len(updates) > 0 {
			if err := r.db.WithContext(ctx).Model(&customer).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = Customer{
		StoreID: storeID,
		Email:   email,
		Name:    name,
		Phone:   phone,
	}
	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		// Concurrent first checkout for the same guest: the unique index on
		// (store_id, lower(email)) wins, so fetch the surviving row.
		var existing Customer
		if ferr := r.db.WithContext(ctx).
			Where("store_id = ? AND lower(email) = ?", storeID, email).
			First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &customer, nil
}
