package bookings

import (
	"math"

	"slotwise/internal/catalog"
)

// Quote is the money breakdown for one service line
type Quote struct {
	Total           float64 // full value of the service
	DueNow          float64 // collected through the gateway at checkout
	SecuredAmount   float64 // collected share held in escrow until delivery, delivery_secured only
	GiftCardApplied float64
	Currency        string
}

// ComputeQuote prices a service line from its catalog snapshot. Pricing type
// decides the total; payment type decides how the total splits between the
// online charge and any balance secured for delivery.
func ComputeQuote(product *catalog.Product, offering *catalog.ServiceOffering, participants, durationMin int) Quote {
	var total float64
	switch offering.PricingType {
	case catalog.PricingPerParticipant:
		total = product.Price * float64(participants)
	case catalog.PricingPerHour:
		total = product.Price * float64(durationMin) / 60.0
	default:
		total = product.Price
	}
	total = roundCents(total)

	q := Quote{Total: total, Currency: product.Currency}

	switch product.PaymentType {
	case catalog.PaymentPercentage:
		q.DueNow = roundCents(total * product.PercentagePaid / 100.0)
	case catalog.PaymentDeliverySecured:
		// The full amount is collected up front. The share not released to
		// the store at payout stays held until the service is delivered.
		q.DueNow = total
		released := roundCents(total * product.PercentagePaid / 100.0)
		q.SecuredAmount = roundCents(total - released)
	default:
		q.DueNow = total
	}

	return q
}

// ApplyGiftCard reduces the online charge by the redeemed amount, floored at
// zero. The total and any secured balance are untouched.
func (q *Quote) ApplyGiftCard(amount float64) {
	if amount <= 0 {
		return
	}
	q.GiftCardApplied = math.Min(roundCents(amount), q.DueNow)
	q.DueNow = roundCents(q.DueNow - q.GiftCardApplied)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
