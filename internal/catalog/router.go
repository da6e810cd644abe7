package catalog

import (
	"github.com/gin-gonic/gin"
)

// SetupCatalogRoutes configures the storefront catalog read routes
func SetupCatalogRoutes(rg *gin.RouterGroup, controller *Controller) {
	offerings := rg.Group("/offerings")
	{
		offerings.GET("", controller.ListOfferings)        // GET /api/v1/offerings?store_id=xxx
		offerings.GET("/:id", controller.GetOffering)      // GET /api/v1/offerings/:id
		offerings.GET("/:id/staff", controller.ListStaff)  // GET /api/v1/offerings/:id/staff
	}
}
