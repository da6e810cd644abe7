package payments

import (
	"net/http"

	"slotwise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// SignatureHeader is the header the gateway signs deliveries with
const SignatureHeader = "X-Webhook-Signature"

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// HandleWebhook receives gateway payment events. The body is read raw and
// unmodified: the HMAC covers the exact bytes on the wire, so any framework
// re-serialization would break verification. The response contract belongs
// to the gateway, not our API envelope.
func (ctrl *Controller) HandleWebhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unreadable body"})
		return
	}

	outcome := ctrl.service.HandleWebhook(
		c.Request.Context(),
		rawBody,
		c.GetHeader(SignatureHeader),
		c.ClientIP(),
	)

	c.JSON(outcome.Code, gin.H{
		"success": outcome.Code == http.StatusOK,
		"message": outcome.Message,
	})
}

// GetTransaction returns the local transaction for a gateway reference,
// used by the storefront's post-payment status poll.
func (ctrl *Controller) GetTransaction(c *gin.Context) {
	externalID := c.Param("external_id")
	if externalID == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "external transaction id is required", nil, nil)
		return
	}

	txn, err := ctrl.service.GetTransaction(c.Request.Context(), externalID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusNotFound, "Transaction not found", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Transaction retrieved successfully", txn, nil)
}
