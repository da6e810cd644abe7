package bookings

import "time"

// ServiceOrderResponse is returned from a successful checkout
type ServiceOrderResponse struct {
	BookingID             string      `json:"booking_id"`
	OrderID               string      `json:"order_id"`
	OrderItemID           string      `json:"order_item_id,omitempty"`
	ExternalTransactionID string      `json:"external_transaction_id"`
	BookingStatus         string      `json:"booking_status"`
	OrderStatus           string      `json:"order_status"`
	PaymentStatus         string      `json:"payment_status"`
	PaymentURL            string      `json:"payment_url"`
	Pricing               PricingInfo `json:"pricing"`
	Slot                  SlotInfo    `json:"slot"`
	CreatedAt             time.Time   `json:"created_at"`
}

type PricingInfo struct {
	Total           float64 `json:"total"`
	DueNow          float64 `json:"due_now"`
	SecuredAmount   float64 `json:"secured_amount,omitempty"`
	GiftCardApplied float64 `json:"gift_card_applied,omitempty"`
	Currency        string  `json:"currency"`
}

type SlotInfo struct {
	Date          string `json:"date"`
	StartMinute   int    `json:"start_minute"`
	EndMinute     int    `json:"end_minute"`
	StaffMemberID string `json:"staff_member_id,omitempty"`
	Participants  int    `json:"participants"`
}

func toServiceOrderResponse(result *ServiceOrderResult) ServiceOrderResponse {
	resp := ServiceOrderResponse{
		BookingID:             result.Booking.ID.String(),
		OrderID:               result.Order.ID.String(),
		ExternalTransactionID: result.ExternalTransactionID,
		BookingStatus:         string(result.Booking.Status),
		OrderStatus:           string(result.Order.Status),
		PaymentStatus:         string(result.Order.PaymentStatus),
		PaymentURL:            result.PaymentURL,
		Pricing: PricingInfo{
			Total:           result.Quote.Total,
			DueNow:          result.Quote.DueNow,
			SecuredAmount:   result.Quote.SecuredAmount,
			GiftCardApplied: result.Quote.GiftCardApplied,
			Currency:        result.Quote.Currency,
		},
		Slot: SlotInfo{
			Date:         result.Booking.ScheduledDate.Format("2006-01-02"),
			StartMinute:  result.Booking.StartMinute,
			EndMinute:    result.Booking.EndMinute,
			Participants: result.Booking.Participants,
		},
		CreatedAt: result.Booking.CreatedAt,
	}
	if result.Booking.StaffMemberID != nil {
		resp.Slot.StaffMemberID = result.Booking.StaffMemberID.String()
	}
	if len(result.Order.Items) > 0 {
		resp.OrderItemID = result.Order.Items[0].ID.String()
	}
	return resp
}
