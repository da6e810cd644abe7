package availability

import (
	"net/http"
	"time"

	"slotwise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckRequest is the availability probe payload
type CheckRequest struct {
	StoreID       string  `json:"store_id" binding:"required,uuid"`
	OfferingID    string  `json:"offering_id" binding:"required,uuid"`
	StaffMemberID *string `json:"staff_member_id,omitempty" binding:"omitempty,uuid"`
	Date          string  `json:"date" binding:"required"` // YYYY-MM-DD
	StartMinute   int     `json:"start_minute" binding:"min=0,max=1439"`
	DurationMin   int     `json:"duration_minutes" binding:"required,min=1"`
	Participants  int     `json:"participants" binding:"omitempty,min=1"`
}

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CheckSlot answers whether a slot could be booked right now. The answer is
// advisory: the slot can still be lost between this probe and checkout.
func (ctrl *Controller) CheckSlot(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request: "+err.Error(), nil, nil)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "date must be YYYY-MM-DD", nil, nil)
		return
	}

	storeID, _ := uuid.Parse(req.StoreID)
	offeringID, _ := uuid.Parse(req.OfferingID)

	cand := Candidate{
		OfferingID:   offeringID,
		Date:         date,
		StartMinute:  req.StartMinute,
		EndMinute:    req.StartMinute + req.DurationMin,
		Participants: req.Participants,
	}
	if cand.Participants == 0 {
		cand.Participants = 1
	}
	if req.StaffMemberID != nil {
		staffID, _ := uuid.Parse(*req.StaffMemberID)
		cand.StaffMemberID = &staffID
	}

	decision, err := ctrl.service.CheckSlot(c.Request.Context(), storeID, cand)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Availability check failed", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Availability checked", decision, nil)
}
