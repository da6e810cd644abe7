package payments

import "strings"

// TransactionStatus is driven exclusively by verified webhook events
type TransactionStatus string

const (
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
	StatusRefunded   TransactionStatus = "refunded"
)

// MapGatewayStatus folds the gateway's status vocabulary into the internal
// enum. Anything unrecognized maps to processing so an unexpected event is
// recorded but never flips a terminal state.
func MapGatewayStatus(s string) TransactionStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "complete", "succeeded", "success", "paid":
		return StatusCompleted
	case "failed", "failure", "declined", "error":
		return StatusFailed
	case "cancelled", "canceled", "expired":
		return StatusCancelled
	case "refunded", "refund":
		return StatusRefunded
	default:
		return StatusProcessing
	}
}

// CanTransition encodes the no-regression rule: terminal states stay put,
// except that a refund may follow a completed payment. Same-status deliveries
// are duplicates, handled by the idempotency ledger rather than here.
func CanTransition(from, to TransactionStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusProcessing:
		return true
	case StatusCompleted:
		return to == StatusRefunded
	default:
		return false
	}
}
