package bookings

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("slotgrid", validateSlotGrid)
	}
}

// validateSlotGrid keeps start times on the 5-minute grid the storefront
// picker produces. Off-grid values are always hand-crafted requests.
func validateSlotGrid(fl validator.FieldLevel) bool {
	return fl.Field().Int()%5 == 0
}

// CustomerInfo identifies the buyer at checkout; email is the guest key
type CustomerInfo struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"omitempty,max=200"`
	Phone string `json:"phone" binding:"omitempty,max=40"`
}

// CreateServiceOrderRequest is the checkout payload for one service slot
type CreateServiceOrderRequest struct {
	StoreID       string       `json:"store_id" binding:"required,uuid"`
	OfferingID    string       `json:"offering_id" binding:"required,uuid"`
	StaffMemberID *string      `json:"staff_member_id,omitempty" binding:"omitempty,uuid"`
	Date          string       `json:"date" binding:"required,datetime=2006-01-02"`
	StartMinute   int          `json:"start_minute" binding:"min=0,max=1439,slotgrid"`
	// DurationMinutes overrides the offering's default length for
	// variable-duration services
	DurationMinutes *int         `json:"duration_minutes,omitempty" binding:"omitempty,min=5,max=1440"`
	Participants    int          `json:"participants" binding:"omitempty,min=1,max=500"`
	Customer      CustomerInfo `json:"customer" binding:"required"`
	// OrderGroupID links this order to its siblings when a cart spanning
	// several stores was split into per-store checkouts upstream
	OrderGroupID *string `json:"order_group_id,omitempty" binding:"omitempty,uuid"`
	// GiftCardAmount is already-validated store credit applied to the charge
	GiftCardAmount float64 `json:"gift_card_amount" binding:"omitempty,min=0"`
	Notes          string  `json:"notes" binding:"omitempty,max=1000"`
}

// Accessors below assume binding validation already ran, so parse errors
// cannot occur.

func (r *CreateServiceOrderRequest) storeID() uuid.UUID {
	id, _ := uuid.Parse(r.StoreID)
	return id
}

func (r *CreateServiceOrderRequest) offeringID() uuid.UUID {
	id, _ := uuid.Parse(r.OfferingID)
	return id
}

func (r *CreateServiceOrderRequest) staffMemberID() *uuid.UUID {
	if r.StaffMemberID == nil || *r.StaffMemberID == "" {
		return nil
	}
	id, err := uuid.Parse(*r.StaffMemberID)
	if err != nil {
		return nil
	}
	return &id
}

func (r *CreateServiceOrderRequest) orderGroupID() *uuid.UUID {
	if r.OrderGroupID == nil || *r.OrderGroupID == "" {
		return nil
	}
	id, err := uuid.Parse(*r.OrderGroupID)
	if err != nil {
		return nil
	}
	return &id
}

func (r *CreateServiceOrderRequest) date() time.Time {
	d, _ := time.Parse("2006-01-02", r.Date)
	return d
}

func (r *CreateServiceOrderRequest) durationMinutes(offeringDefault int) int {
	if r.DurationMinutes == nil || *r.DurationMinutes <= 0 {
		return offeringDefault
	}
	return *r.DurationMinutes
}

func (r *CreateServiceOrderRequest) participants() int {
	if r.Participants < 1 {
		return 1
	}
	return r.Participants
}

// CancelBookingRequest carries an optional reason for the audit log
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}
