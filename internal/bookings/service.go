package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"slotwise/internal/availability"
	"slotwise/internal/catalog"
	"slotwise/internal/customers"
	"slotwise/internal/orders"
	"slotwise/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrPaymentInitFailed = errors.New("payment initiation failed")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrNotCancellable    = errors.New("booking cannot be cancelled")
)

// CheckoutParams is what the saga hands to the payment layer. Declared here
// to avoid a circular dependency with the payments package; the adapter lives
// in the route wiring.
type CheckoutParams struct {
	OrderID       uuid.UUID
	StoreID       uuid.UUID
	CustomerEmail string
	Amount        float64
	Currency      string
	Description   string
}

// CheckoutSession is the gateway handle returned for a started payment
type CheckoutSession struct {
	TransactionID         uuid.UUID
	ExternalTransactionID string
	PaymentURL            string
}

// PaymentInitiator starts a hosted checkout for a pending order
type PaymentInitiator interface {
	InitiateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

// EventPublisher emits domain events after state changes commit. Publish
// failures never fail the business operation.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// ServiceOrderResult is the saga's success payload
type ServiceOrderResult struct {
	Booking               *Booking      `json:"booking"`
	Order                 *orders.Order `json:"order"`
	PaymentURL            string        `json:"payment_url"`
	ExternalTransactionID string        `json:"external_transaction_id"`
	Quote                 Quote         `json:"quote"`
}

type Service interface {
	// CreateServiceOrder runs the checkout saga: validate the slot, create a
	// pending booking, price and create the order, then start the gateway
	// checkout. Any downstream failure cancels the booking so the slot frees
	// immediately; the order is left pending as an audit trail.
	CreateServiceOrder(ctx context.Context, req CreateServiceOrderRequest) (*ServiceOrderResult, *availability.Decision, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListCustomerBookings(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, int64, error)
	CancelBooking(ctx context.Context, id uuid.UUID, reason string) error
	// ConfirmByOrder flips all pending bookings of an order to confirmed.
	// Called by the payment reconciler when a completed webhook lands.
	ConfirmByOrder(ctx context.Context, orderID uuid.UUID) error
	// CancelByOrder releases all live bookings of an order, used for failed
	// and refunded payments.
	CancelByOrder(ctx context.Context, orderID uuid.UUID, reason string) error
}

type service struct {
	repo         Repository
	catalogSvc   catalog.Service
	customerRepo customers.Repository
	orderRepo    orders.Repository
	payments     PaymentInitiator
	events       EventPublisher
	logger       *logger.Logger
	nowFn        func() time.Time
}

func NewService(
	repo Repository,
	catalogSvc catalog.Service,
	customerRepo customers.Repository,
	orderRepo orders.Repository,
	payments PaymentInitiator,
	events EventPublisher,
	log *logger.Logger,
) Service {
	return &service{
		repo:         repo,
		catalogSvc:   catalogSvc,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		payments:     payments,
		events:       events,
		logger:       log,
		nowFn:        time.Now,
	}
}

func (s *service) CreateServiceOrder(ctx context.Context, req CreateServiceOrderRequest) (*ServiceOrderResult, *availability.Decision, error) {
	now := s.nowFn()

	// 1. Load the catalog snapshot the whole saga prices against
	offering, err := s.catalogSvc.GetOffering(ctx, req.offeringID())
	if err != nil {
		return nil, nil, err
	}
	if offering.Product == nil {
		return nil, nil, errors.New("offering has no product")
	}

	// 2. Validate the optional staff selection
	staff, err := s.catalogSvc.ResolveStaff(ctx, offering.ID, req.staffMemberID())
	if err != nil {
		return nil, nil, err
	}

	// 3. Resolve the buyer, creating a guest customer on first contact
	customer, err := s.customerRepo.FindOrCreate(ctx, req.storeID(), req.Customer.Email, req.Customer.Name, req.Customer.Phone)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	// 4. Create the pending booking under the slot admission rules
	booking := &Booking{
		StoreID:           req.storeID(),
		ServiceOfferingID: offering.ID,
		CustomerID:        customer.ID,
		Status:            StatusPending,
		ScheduledDate:     req.date(),
		StartMinute:       req.StartMinute,
		EndMinute:         req.StartMinute + req.durationMinutes(offering.DurationMinutes),
		Participants:      req.participants(),
		Notes:             req.Notes,
	}
	if staff != nil {
		booking.StaffMemberID = &staff.ID
	}

	decision, err := s.repo.CreateWithSlotCheck(ctx, booking, offering, now)
	if err != nil {
		if errors.Is(err, ErrSlotRejected) {
			return nil, decision, ErrSlotRejected
		}
		return nil, nil, err
	}
	s.logger.LogBookingCreated(ctx, booking.ID.String(), offering.ID.String(), "")

	// 5. Price the line, then apply any redeemed gift card to the charge
	quote := ComputeQuote(offering.Product, offering, booking.Participants, booking.Duration())
	quote.ApplyGiftCard(req.GiftCardAmount)

	// 6. Create the pending order with a snapshot of what was sold
	order, err := s.createOrder(ctx, booking, offering, customer, quote, req.orderGroupID())
	if err != nil {
		s.compensate(ctx, booking, "order_creation_failed", err)
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	// 7. Link the booking to its order
	if err := s.repo.AttachOrder(ctx, booking.ID, order.ID); err != nil {
		s.compensate(ctx, booking, "order_link_failed", err)
		return nil, nil, fmt.Errorf("failed to link booking to order: %w", err)
	}
	booking.OrderID = &order.ID
	s.logger.LogBookingCreated(ctx, booking.ID.String(), offering.ID.String(), order.ID.String())

	// 8. Start the hosted checkout. This is the step most likely to fail
	// (network, gateway outage), and the slot must not stay blocked when it
	// does. The order stays pending for the audit trail.
	session, err := s.payments.InitiateCheckout(ctx, CheckoutParams{
		OrderID:       order.ID,
		StoreID:       order.StoreID,
		CustomerEmail: customer.Email,
		Amount:        quote.DueNow,
		Currency:      quote.Currency,
		Description:   offering.Product.Name,
	})
	if err != nil {
		s.compensate(ctx, booking, "payment_initiation_failed", err)
		return nil, nil, fmt.Errorf("%w: %v", ErrPaymentInitFailed, err)
	}

	// 9. Announce the new booking and order; failures here are logged, never
	// surfaced
	s.publishEvent(ctx, "booking.created", map[string]interface{}{
		"booking_id":     booking.ID.String(),
		"order_id":       order.ID.String(),
		"offering_id":    offering.ID.String(),
		"store_id":       order.StoreID.String(),
		"customer_email": customer.Email,
		"scheduled_date": booking.ScheduledDate.Format("2006-01-02"),
		"start_minute":   booking.StartMinute,
		"end_minute":     booking.EndMinute,
	})
	s.publishEvent(ctx, "order.created", map[string]interface{}{
		"order_id":       order.ID.String(),
		"booking_id":     booking.ID.String(),
		"store_id":       order.StoreID.String(),
		"customer_email": customer.Email,
		"amount_due":     quote.DueNow,
		"currency":       quote.Currency,
	})
	if quote.GiftCardApplied > 0 {
		s.publishEvent(ctx, "giftcard.redeemed", map[string]interface{}{
			"order_id":       order.ID.String(),
			"store_id":       order.StoreID.String(),
			"customer_email": customer.Email,
			"amount":         quote.GiftCardApplied,
			"currency":       quote.Currency,
		})
	}

	return &ServiceOrderResult{
		Booking:               booking,
		Order:                 order,
		PaymentURL:            session.PaymentURL,
		ExternalTransactionID: session.ExternalTransactionID,
		Quote:                 quote,
	}, decision, nil
}

func (s *service) createOrder(ctx context.Context, booking *Booking, offering *catalog.ServiceOffering, customer *customers.Customer, quote Quote, groupID *uuid.UUID) (*orders.Order, error) {
	order := &orders.Order{
		StoreID:         booking.StoreID,
		CustomerID:      customer.ID,
		GroupID:         groupID,
		Status:          orders.StatusPending,
		PaymentStatus:   orders.PaymentPending,
		TotalAmount:     quote.Total,
		AmountDue:       quote.DueNow,
		RemainingAmount: quote.Total - quote.DueNow,
		Currency:        quote.Currency,
		PaymentType:     offering.Product.PaymentType,
		PercentagePaid:  offering.Product.PercentagePaid,
	}

	meta := orders.BookingMetadata{
		BookingID:     booking.ID.String(),
		OfferingID:    offering.ID.String(),
		ScheduledDate: booking.ScheduledDate.Format("2006-01-02"),
		StartMinute:   booking.StartMinute,
		EndMinute:     booking.EndMinute,
		Participants:  booking.Participants,
	}
	if booking.StaffMemberID != nil {
		meta.StaffMemberID = booking.StaffMemberID.String()
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	item := orders.OrderItem{
		ProductID: offering.Product.ID,
		BookingID: &booking.ID,
		Name:      offering.Product.Name,
		Quantity:  1,
		UnitPrice: quote.Total,
		Subtotal:  quote.Total,
		Metadata:  metaJSON,
	}

	if err := s.orderRepo.CreateWithItems(ctx, order, []orders.OrderItem{item}); err != nil {
		return nil, err
	}

	if quote.SecuredAmount > 0 {
		sp := &orders.SecuredPayment{
			OrderID:           order.ID,
			TotalAmount:       quote.Total,
			HeldAmount:        quote.SecuredAmount,
			Status:            orders.SecuredHeld,
			ReleaseConditions: "service_delivered",
		}
		if err := s.orderRepo.CreateSecuredPayment(ctx, sp); err != nil {
			return nil, err
		}
		order.SecuredPayment = sp
	}

	return order, nil
}

// compensate releases the slot after a downstream saga step fails. The cancel
// itself can fail; both errors are logged so neither masks the other.
func (s *service) compensate(ctx context.Context, booking *Booking, reason string, cause error) {
	if err := s.repo.Cancel(ctx, booking.ID, reason); err != nil {
		s.logger.LogSagaCompensation(ctx, booking.ID.String(), cause, err)
		return
	}
	booking.Status = StatusCancelled
	booking.CancelReason = reason
	s.logger.LogSagaCompensation(ctx, booking.ID.String(), cause, nil)
}

func (s *service) publishEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to publish domain event", err, map[string]interface{}{
			"event_type": eventType,
		})
	}
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *service) ListCustomerBookings(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Booking, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByCustomer(ctx, customerID, limit, offset)
}

func (s *service) CancelBooking(ctx context.Context, id uuid.UUID, reason string) error {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrBookingNotFound
	}
	if !booking.Status.IsLive() {
		return ErrNotCancellable
	}
	if reason == "" {
		reason = "customer_request"
	}
	if err := s.repo.Cancel(ctx, id, reason); err != nil {
		return err
	}
	s.logger.LogBookingCancelled(ctx, id.String(), reason)

	s.publishEvent(ctx, "booking.cancelled", map[string]interface{}{
		"booking_id": id.String(),
		"reason":     reason,
	})
	return nil
}

func (s *service) ConfirmByOrder(ctx context.Context, orderID uuid.UUID) error {
	bookings, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.Status != StatusPending {
			continue
		}
		if err := s.repo.UpdateStatus(ctx, b.ID, StatusConfirmed); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) CancelByOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	bookings, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if !b.Status.IsLive() {
			continue
		}
		if err := s.repo.Cancel(ctx, b.ID, reason); err != nil {
			return err
		}
		s.logger.LogBookingCancelled(ctx, b.ID.String(), reason)
	}
	return nil
}
