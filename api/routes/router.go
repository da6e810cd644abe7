// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"slotwise/internal/availability"
	"slotwise/internal/bookings"
	"slotwise/internal/catalog"
	"slotwise/internal/customers"
	"slotwise/internal/notifications"
	"slotwise/internal/orders"
	"slotwise/internal/payments"
	"slotwise/internal/shared/config"
	"slotwise/internal/shared/database"
	"slotwise/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Router holds all route dependencies
type Router struct {
	config     *config.Config
	db         *database.DB
	dispatcher notifications.Dispatcher
	logger     *logger.Logger
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, dispatcher notifications.Dispatcher, log *logger.Logger) *Router {
	return &Router{
		config:     cfg,
		db:         db,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupDomainRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "slotwise-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "slotwise-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupDomainRoutes wires every domain in dependency order. The booking saga
// and the payment reconciler reference each other, so both sides are bound
// through small adapters with the cycle broken by a late-bound confirmer.
func (r *Router) setupDomainRoutes(rg *gin.RouterGroup) {
	pg := r.db.GetPostgreSQL()

	// Catalog
	catalogRepo := catalog.NewRepository(pg)
	catalogService := catalog.NewService(catalogRepo)
	catalog.SetupCatalogRoutes(rg, catalog.NewController(catalogService))

	// Repositories shared across domains
	customerRepo := customers.NewRepository(pg)
	orderRepo := orders.NewRepository(pg)
	bookingRepo := bookings.NewRepository(pg)

	// Availability reads the live booking calendar
	availabilityService := availability.NewService(catalogRepo, &scheduleReader{repo: bookingRepo})
	availability.SetupAvailabilityRoutes(rg, availability.NewController(availabilityService))

	// Payments: the confirmer is bound after the booking service exists
	confirmer := &lateBoundConfirmer{}
	paymentRepo := payments.NewRepository(pg, r.db.GetRedisClient(), r.config.Redis.WebhookDedupTTL)
	gateway := payments.NewHTTPGateway(&r.config.Payment)
	paymentService := payments.NewService(
		paymentRepo,
		orderRepo,
		confirmer,
		gateway,
		r.dispatcher,
		&r.config.Payment,
		r.logger,
	)
	payments.SetupPaymentRoutes(rg, payments.NewController(paymentService))

	// Bookings run the checkout saga against the payment service
	bookingService := bookings.NewService(
		bookingRepo,
		catalogService,
		customerRepo,
		orderRepo,
		&paymentInitiator{payments: paymentService},
		r.dispatcher,
		r.logger,
	)
	confirmer.bind(bookingService)
	bookings.SetupBookingRoutes(rg, bookings.NewController(bookingService))
}

// scheduleReader adapts the booking repository to the availability engine's
// read model.
type scheduleReader struct {
	repo bookings.Repository
}

func (s *scheduleReader) LiveBookingsForDay(ctx context.Context, storeID uuid.UUID, date time.Time) ([]availability.ExistingBooking, error) {
	day, err := s.repo.LiveBookingsForDay(ctx, storeID, date)
	if err != nil {
		return nil, err
	}
	return bookings.ToSnapshot(day), nil
}

// paymentInitiator adapts the payment service to the saga's checkout port
type paymentInitiator struct {
	payments payments.Service
}

func (p *paymentInitiator) InitiateCheckout(ctx context.Context, params bookings.CheckoutParams) (*bookings.CheckoutSession, error) {
	intent, err := p.payments.InitiateCheckout(ctx, payments.InitiateParams{
		OrderID:       params.OrderID,
		StoreID:       params.StoreID,
		CustomerEmail: params.CustomerEmail,
		Amount:        params.Amount,
		Currency:      params.Currency,
		Description:   params.Description,
	})
	if err != nil {
		return nil, err
	}
	return &bookings.CheckoutSession{
		TransactionID:         intent.TransactionID,
		ExternalTransactionID: intent.ExternalTransactionID,
		PaymentURL:            intent.PaymentURL,
	}, nil
}

// lateBoundConfirmer breaks the bookings<->payments construction cycle. The
// payment service only calls it from webhook handlers, long after bind runs
// during startup.
type lateBoundConfirmer struct {
	svc bookings.Service
}

func (l *lateBoundConfirmer) bind(svc bookings.Service) {
	l.svc = svc
}

func (l *lateBoundConfirmer) ConfirmByOrder(ctx context.Context, orderID uuid.UUID) error {
	return l.svc.ConfirmByOrder(ctx, orderID)
}

func (l *lateBoundConfirmer) CancelByOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	return l.svc.CancelByOrder(ctx, orderID, reason)
}
