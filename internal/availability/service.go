package availability

import (
	"context"
	"time"

	"slotwise/internal/catalog"

	"github.com/google/uuid"
)

// ScheduleReader supplies the live bookings for a store on one calendar day.
// Defined here to avoid a circular dependency with the bookings package; the
// adapter lives in the route wiring.
type ScheduleReader interface {
	LiveBookingsForDay(ctx context.Context, storeID uuid.UUID, date time.Time) ([]ExistingBooking, error)
}

// Service answers availability probes for the storefront and runs the same
// rule set as a pre-check inside the booking saga.
type Service interface {
	CheckSlot(ctx context.Context, storeID uuid.UUID, cand Candidate) (*Decision, error)
}

type service struct {
	catalogRepo catalog.Repository
	schedule    ScheduleReader
	nowFn       func() time.Time
}

func NewService(catalogRepo catalog.Repository, schedule ScheduleReader) Service {
	return &service{
		catalogRepo: catalogRepo,
		schedule:    schedule,
		nowFn:       time.Now,
	}
}

func (s *service) CheckSlot(ctx context.Context, storeID uuid.UUID, cand Candidate) (*Decision, error) {
	offering, err := s.catalogRepo.GetOfferingByID(ctx, cand.OfferingID)
	if err != nil {
		return nil, err
	}

	daySchedule, err := s.schedule.LiveBookingsForDay(ctx, storeID, cand.Date)
	if err != nil {
		return nil, err
	}

	decision := Check(cand, offering, daySchedule, s.nowFn())
	return &decision, nil
}
