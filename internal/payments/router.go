package payments

import (
	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures the webhook receiver and transaction reads
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/webhooks/payments", controller.HandleWebhook) // POST /api/v1/webhooks/payments

	payments := rg.Group("/payments")
	{
		payments.GET("/transactions/:external_id", controller.GetTransaction)
	}
}
