package bookings

import (
	"testing"

	"slotwise/internal/catalog"

	"github.com/stretchr/testify/assert"
)

func testProduct(price float64, paymentType catalog.PaymentType, pct float64) *catalog.Product {
	return &catalog.Product{
		Name:           "Deep Tissue Massage",
		Price:          price,
		Currency:       "USD",
		PaymentType:    paymentType,
		PercentagePaid: pct,
	}
}

func TestComputeQuote_FlatFullPayment(t *testing.T) {
	p := testProduct(80, catalog.PaymentFull, 0)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingFlat}

	q := ComputeQuote(p, o, 3, 60)

	assert.Equal(t, 80.0, q.Total)
	assert.Equal(t, 80.0, q.DueNow)
	assert.Zero(t, q.SecuredAmount)
	assert.Equal(t, "USD", q.Currency)
}

func TestComputeQuote_PerParticipant(t *testing.T) {
	p := testProduct(1000, catalog.PaymentFull, 0)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingPerParticipant}

	q := ComputeQuote(p, o, 3, 90)

	assert.Equal(t, 3000.0, q.Total)
	assert.Equal(t, 3000.0, q.DueNow)
}

func TestComputeQuote_PerHour(t *testing.T) {
	p := testProduct(120, catalog.PaymentFull, 0)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingPerHour}

	q := ComputeQuote(p, o, 1, 90)

	assert.Equal(t, 180.0, q.Total, "90 minutes at 120/hour")
}

func TestComputeQuote_PercentageDeposit(t *testing.T) {
	p := testProduct(1000, catalog.PaymentPercentage, 30)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingPerParticipant}

	q := ComputeQuote(p, o, 3, 60)

	assert.Equal(t, 3000.0, q.Total)
	assert.Equal(t, 900.0, q.DueNow)
	assert.Zero(t, q.SecuredAmount, "plain percentage leaves no secured balance")
}

func TestComputeQuote_DeliverySecured(t *testing.T) {
	p := testProduct(1000, catalog.PaymentDeliverySecured, 30)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingPerParticipant}

	q := ComputeQuote(p, o, 3, 60)

	assert.Equal(t, 3000.0, q.Total)
	assert.Equal(t, 3000.0, q.DueNow, "delivery_secured collects the full amount up front")
	assert.Equal(t, 2100.0, q.SecuredAmount, "the unreleased 70% stays held until delivery")
}

func TestComputeQuote_DeliverySecuredWithoutRelease(t *testing.T) {
	p := testProduct(500, catalog.PaymentDeliverySecured, 0)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingFlat}

	q := ComputeQuote(p, o, 1, 60)

	assert.Equal(t, 500.0, q.DueNow)
	assert.Equal(t, 500.0, q.SecuredAmount, "with no payout release the whole amount is held")
}

func TestComputeQuote_RoundsToCents(t *testing.T) {
	p := testProduct(99.99, catalog.PaymentPercentage, 33.33)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingFlat}

	q := ComputeQuote(p, o, 1, 30)

	assert.Equal(t, 99.99, q.Total)
	assert.Equal(t, 33.33, q.DueNow)
}

func TestApplyGiftCard_FlooredAtZero(t *testing.T) {
	p := testProduct(50, catalog.PaymentFull, 0)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingFlat}

	q := ComputeQuote(p, o, 1, 30)
	q.ApplyGiftCard(80)

	assert.Zero(t, q.DueNow, "gift card larger than the charge zeroes it")
	assert.Equal(t, 50.0, q.GiftCardApplied, "only the charged amount is redeemed")
	assert.Equal(t, 50.0, q.Total, "total is never discounted")
}

func TestApplyGiftCard_PartialRedemption(t *testing.T) {
	p := testProduct(100, catalog.PaymentFull, 0)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingFlat}

	q := ComputeQuote(p, o, 1, 30)
	q.ApplyGiftCard(25)

	assert.Equal(t, 75.0, q.DueNow)
	assert.Equal(t, 25.0, q.GiftCardApplied)
}

func TestComputeQuote_PerHourPartialHourRounds(t *testing.T) {
	p := testProduct(100, catalog.PaymentFull, 0)
	o := &catalog.ServiceOffering{PricingType: catalog.PricingPerHour}

	q := ComputeQuote(p, o, 1, 50)

	assert.Equal(t, 83.33, q.Total)
}
