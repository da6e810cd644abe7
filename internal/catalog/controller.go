package catalog

import (
	"errors"
	"net/http"

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

// GetOffering returns one offering with its product and active staff
func (ctrl *Controller) GetOffering(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid offering ID", nil, nil)
		return
	}

	offering, err := ctrl.service.GetOffering(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOfferingNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Service offering not found", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch offering", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Offering retrieved successfully", offering, nil)
}

// ListOfferings returns all offerings for a store
func (ctrl *Controller) ListOfferings(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "store_id query parameter is required", nil, nil)
		return
	}

	offerings, err := ctrl.service.ListOfferings(c.Request.Context(), storeID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch offerings", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Offerings retrieved successfully", offerings, nil)
}

// ListStaff returns the active staff members for an offering
func (ctrl *Controller) ListStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid offering ID", nil, nil)
		return
	}

	staff, err := ctrl.service.ListStaff(c.Request.Context(), id)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch staff", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Staff retrieved successfully", staff, nil)
}
