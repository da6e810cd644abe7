package orders

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus is the money state of an order, driven by the transaction
// that paid for it
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// SecuredStatus is the lifecycle of an escrowed on-delivery balance
type SecuredStatus string

const (
	SecuredHeld     SecuredStatus = "held"
	SecuredReleased SecuredStatus = "released"
)
