package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrOfferingNotFound = errors.New("service offering not found")
var ErrStaffNotFound = errors.New("staff member not found")
var ErrStaffMismatch = errors.New("staff member does not belong to this offering")

type Service interface {
	GetOffering(ctx context.Context, id uuid.UUID) (*ServiceOffering, error)
	ListOfferings(ctx context.Context, storeID uuid.UUID) ([]ServiceOffering, error)
	ListStaff(ctx context.Context, offeringID uuid.UUID) ([]StaffMember, error)
	// ResolveStaff validates an optional staff selection against the offering
	ResolveStaff(ctx context.Context, offeringID uuid.UUID, staffID *uuid.UUID) (*StaffMember, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetOffering(ctx context.Context, id uuid.UUID) (*ServiceOffering, error) {
	offering, err := s.repo.GetOfferingWithProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		return nil, err
	}
	return offering, nil
}

func (s *service) ListOfferings(ctx context.Context, storeID uuid.UUID) ([]ServiceOffering, error) {
	return s.repo.ListOfferingsByStore(ctx, storeID)
}

func (s *service) ListStaff(ctx context.Context, offeringID uuid.UUID) ([]StaffMember, error) {
	return s.repo.ListActiveStaff(ctx, offeringID)
}

func (s *service) ResolveStaff(ctx context.Context, offeringID uuid.UUID, staffID *uuid.UUID) (*StaffMember, error) {
	if staffID == nil {
		return nil, nil
	}

	staff, err := s.repo.GetStaffMemberByID(ctx, *staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}

	if staff.ServiceOfferingID != offeringID {
		return nil, ErrStaffMismatch
	}
	if !staff.Active {
		return nil, ErrStaffNotFound
	}

	return staff, nil
}
