package availability

import (
	"github.com/gin-gonic/gin"
)

// SetupAvailabilityRoutes configures the storefront availability probe
func SetupAvailabilityRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/availability/check", controller.CheckSlot) // POST /api/v1/availability/check
}
