package payments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_PrefixedHeader(t *testing.T) {
	body := []byte(`{"transaction_id":"tx_1","status":"completed"}`)
	header := "sha256=" + ComputeSignature("topsecret", body)

	assert.True(t, VerifySignature("topsecret", body, header))
}

func TestVerifySignature_BareHexHeader(t *testing.T) {
	body := []byte(`{"transaction_id":"tx_1","status":"completed"}`)
	header := ComputeSignature("topsecret", body)

	assert.True(t, VerifySignature("topsecret", body, header))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"transaction_id":"tx_1"}`)
	header := "sha256=" + ComputeSignature("other-secret", body)

	assert.False(t, VerifySignature("topsecret", body, header))
}

func TestVerifySignature_BodyTampered(t *testing.T) {
	body := []byte(`{"amount":100}`)
	header := "sha256=" + ComputeSignature("topsecret", body)

	tampered := []byte(`{"amount":999}`)
	assert.False(t, VerifySignature("topsecret", tampered, header))
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	assert.False(t, VerifySignature("topsecret", []byte(`{}`), ""))
}

func TestVerifySignature_UppercaseHexAccepted(t *testing.T) {
	body := []byte(`{"transaction_id":"tx_1"}`)
	header := strings.ToUpper(ComputeSignature("topsecret", body))

	assert.True(t, VerifySignature("topsecret", body, "sha256="+header))
}

func TestMapGatewayStatus(t *testing.T) {
	cases := map[string]TransactionStatus{
		"completed":  StatusCompleted,
		"SUCCESS":    StatusCompleted,
		"paid":       StatusCompleted,
		"failed":     StatusFailed,
		"declined":   StatusFailed,
		"cancelled":  StatusCancelled,
		"canceled":   StatusCancelled,
		"refunded":   StatusRefunded,
		"in_transit": StatusProcessing,
		"":           StatusProcessing,
	}
	for input, want := range cases {
		assert.Equal(t, want, MapGatewayStatus(input), "input %q", input)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusProcessing, StatusCompleted))
	assert.True(t, CanTransition(StatusProcessing, StatusFailed))
	assert.True(t, CanTransition(StatusCompleted, StatusRefunded), "refund may follow completion")

	assert.False(t, CanTransition(StatusCompleted, StatusProcessing), "no regression")
	assert.False(t, CanTransition(StatusCompleted, StatusFailed))
	assert.False(t, CanTransition(StatusFailed, StatusCompleted))
	assert.False(t, CanTransition(StatusRefunded, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusCompleted), "duplicates are ledger territory")
}
