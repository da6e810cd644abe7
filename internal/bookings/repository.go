package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwise/internal/availability"
	"slotwise/internal/catalog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSlotRejected signals that admission rules or the database exclusion
// constraint refused the slot. The Decision carries the reason.
var ErrSlotRejected = errors.New("slot rejected")

const exclusionViolationCode = "23P01"

type Repository interface {
	// CreateWithSlotCheck inserts the booking after re-running the admission
	// rules under a row lock. The offering row is locked FOR UPDATE so two
	// checkouts for the same offering serialize; the staff exclusion
	// constraint backstops anything the in-transaction snapshot missed.
	CreateWithSlotCheck(ctx context.Context, booking *Booking, offering *catalog.ServiceOffering, now time.Time) (*availability.Decision, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Booking, error)
	LiveBookingsForDay(ctx context.Context, storeID uuid.UUID, date time.Time) ([]Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error
	AttachOrder(ctx context.Context, bookingID, orderID uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithSlotCheck(ctx context.Context, booking *Booking, offering *catalog.ServiceOffering, now time.Time) (*availability.Decision, error) {
	var decision availability.Decision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the offering row so concurrent checkouts for the same
		// offering observe each other's bookings.
		var locked struct {
			ID uuid.UUID `gorm:"column:id"`
		}
		err := tx.Table("service_offerings").
			Select("id").
			Where("id = ?", booking.ServiceOfferingID).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("service offering not found")
			}
			return fmt.Errorf("failed to lock offering: %w", err)
		}

		// 2. Re-run the admission rules against the day as this transaction
		// sees it.
		var existing []Booking
		err = tx.
			Where("store_id = ? AND scheduled_date = ?", booking.StoreID, booking.ScheduledDate).
			Where("status IN ?", LiveStatuses).
			Find(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to load day schedule: %w", err)
		}

		decision = availability.Check(toCandidate(booking), offering, ToSnapshot(existing), now)
		if !decision.Allowed {
			return ErrSlotRejected
		}

		// 3. Insert. An exclusion violation here means another transaction
		// won the staff slot between our snapshot and commit.
		if err := tx.Create(booking).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == exclusionViolationCode {
				decision = availability.Decision{
					Reason:        availability.ReasonStaffConflict,
					Detail:        "staff member already booked in this slot",
					ConflictCount: 1,
				}
				return ErrSlotRejected
			}
			return fmt.Errorf("failed to create booking: %w", err)
		}

		decision.Allowed = true
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrSlotRejected) {
			return &decision, ErrSlotRejected
		}
		return nil, err
	}
	return &decision, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Offering").
		Preload("Offering.Product").
		Preload("Staff").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, int64, error) {
	var bookings []Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&Booking{}).Where("customer_id = ?", customerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Offering").
		Preload("Staff").
		Order("scheduled_date DESC, start_minute DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) LiveBookingsForDay(ctx context.Context, storeID uuid.UUID, date time.Time) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND scheduled_date = ?", storeID, date).
		Where("status IN ?", LiveStatuses).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error {
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) AttachOrder(ctx context.Context, bookingID, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", bookingID).
		Update("order_id", orderID).Error
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        StatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  &now,
		}).Error
}

func toCandidate(b *Booking) availability.Candidate {
	return availability.Candidate{
		OfferingID:    b.ServiceOfferingID,
		StaffMemberID: b.StaffMemberID,
		Date:          b.ScheduledDate,
		StartMinute:   b.StartMinute,
		EndMinute:     b.EndMinute,
		Participants:  b.Participants,
	}
}

// ToSnapshot converts booking rows into the shape the rule engine consumes
func ToSnapshot(bookings []Booking) []availability.ExistingBooking {
	out := make([]availability.ExistingBooking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, availability.ExistingBooking{
			BookingID:     b.ID,
			OfferingID:    b.ServiceOfferingID,
			StaffMemberID: b.StaffMemberID,
			StartMinute:   b.StartMinute,
			EndMinute:     b.EndMinute,
		})
	}
	return out
}
