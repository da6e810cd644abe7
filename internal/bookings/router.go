package bookings

import (
	"slotwise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures checkout and booking management routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Checkout is open to guests; a token only enriches the request context
	orders := rg.Group("/orders")
	orders.Use(middleware.OptionalAuth())
	{
		orders.POST("/service", controller.CreateServiceOrder) // POST /api/v1/orders/service
	}

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.OptionalAuth())
	{
		bookings.GET("", controller.ListCustomerBookings)      // GET  /api/v1/bookings?customer_id=xxx
		bookings.GET("/:id", controller.GetBooking)            // GET  /api/v1/bookings/:id
		bookings.POST("/:id/cancel", controller.CancelBooking) // POST /api/v1/bookings/:id/cancel
	}
}
