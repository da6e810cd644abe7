package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"slotwise/internal/catalog"
	"slotwise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateServiceOrder handles checkout for one service slot. A 409 means the
// slot was refused and carries the rejection reason; 502 means the slot was
// fine but the payment gateway could not start a checkout.
func (ctrl *Controller) CreateServiceOrder(c *gin.Context) {
	var req CreateServiceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request: "+err.Error(), nil, nil)
		return
	}

	result, decision, err := ctrl.service.CreateServiceOrder(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotRejected):
			response.RespondJSON(c, "error", http.StatusConflict, "Slot is not available", decision, nil)
		case errors.Is(err, catalog.ErrOfferingNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Service offering not found", nil, nil)
		case errors.Is(err, catalog.ErrStaffNotFound), errors.Is(err, catalog.ErrStaffMismatch):
			response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
		case errors.Is(err, ErrPaymentInitFailed):
			response.RespondJSON(c, "error", http.StatusBadGateway,
				"Could not start payment, the slot has been released", nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create order", nil, nil)
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Order created, complete payment to confirm",
		toServiceOrderResponse(result), nil)
}

// GetBooking returns one booking with its offering and staff
func (ctrl *Controller) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// ListCustomerBookings returns a customer's bookings with pagination
func (ctrl *Controller) ListCustomerBookings(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "customer_id query parameter is required", nil, nil)
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	bookings, total, err := ctrl.service.ListCustomerBookings(c.Request.Context(), customerID, limit, offset)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch bookings", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", map[string]interface{}{
		"bookings": bookings,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	}, nil)
}

// CancelBooking cancels a live booking and frees its slot
func (ctrl *Controller) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	err = ctrl.service.CancelBooking(c.Request.Context(), id, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, nil)
		case errors.Is(err, ErrNotCancellable):
			response.RespondJSON(c, "error", http.StatusConflict, "Booking is not in a cancellable state", nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to cancel booking", nil, nil)
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", nil, nil)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
