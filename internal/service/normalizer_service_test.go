// FILE: internal/service/normalizer_service_test.go
package service

import (
	"crypto/sha512"
	"fmt"
	"testing"
	"time"

	"vip-gatekeeper-be/internal/dto"
	"vip-gatekeeper-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(orderID, statusCode, grossAmount, key string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderID+statusCode+grossAmount+key)))
}

func TestNormalize_StatusMapping(t *testing.T) {
	n := NewNotificationNormalizer(testServerKey)
	now := time.Now().UTC()

	tests := []struct {
		status   string
		wantKind entity.PaymentEventKind
		wantNil  bool
	}{
		{status: "capture", wantKind: entity.PaymentCompleted},
		{status: "settlement", wantKind: entity.PaymentCompleted},
		{status: "deny", wantKind: entity.PaymentFailed},
		{status: "cancel", wantKind: entity.PaymentFailed},
		{status: "expire", wantKind: entity.PaymentFailed},
		{status: "pending", wantNil: true},
		{status: "refund", wantNil: true},
		{status: "somethingnew", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			req := &dto.MidtransWebhookRequest{
				TransactionStatus: tt.status,
				TransactionId:     "tx-1",
				StatusCode:        "200",
				OrderId:           "order-1",
				GrossAmount:       "150000.00",
				SignatureKey:      sign("order-1", "200", "150000.00", testServerKey),
				CustomField1:      "1001",
			}
			ev, err := n.Normalize(req, now)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, ev)
				return
			}
			require.NotNil(t, ev)
			assert.Equal(t, tt.wantKind, ev.Kind)
			assert.Equal(t, "1001", ev.UserID)
			assert.Equal(t, "order-1", ev.PaymentRef)
			assert.Equal(t, "tx-1:"+tt.status, ev.EventID)
		})
	}
}

func TestNormalize_RejectsTamperedPayload(t *testing.T) {
	n := NewNotificationNormalizer(testServerKey)
	req := &dto.MidtransWebhookRequest{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderId:           "order-1",
		GrossAmount:       "150000.00",
		SignatureKey:      sign("order-1", "200", "150000.00", testServerKey),
		CustomField1:      "1001",
	}

	// Amount changed after signing.
	req.GrossAmount = "1.00"
	_, err := n.Normalize(req, time.Now().UTC())
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestNormalize_UnresolvableUser(t *testing.T) {
	n := NewNotificationNormalizer(testServerKey)
	base := func() *dto.MidtransWebhookRequest {
		return &dto.MidtransWebhookRequest{
			TransactionStatus: "settlement",
			StatusCode:        "200",
			OrderId:           "order-1",
			GrossAmount:       "150000.00",
			SignatureKey:      sign("order-1", "200", "150000.00", testServerKey),
		}
	}

	t.Run("missing custom field", func(t *testing.T) {
		_, err := n.Normalize(base(), time.Now().UTC())
		assert.ErrorIs(t, err, ErrUnresolvableUser)
	})

	t.Run("non-numeric user id", func(t *testing.T) {
		req := base()
		req.CustomField1 = "not-a-telegram-id"
		_, err := n.Normalize(req, time.Now().UTC())
		assert.ErrorIs(t, err, ErrUnresolvableUser)
	})
}

func TestNormalize_OccurredAtFromTransactionTime(t *testing.T) {
	n := NewNotificationNormalizer(testServerKey)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	req := &dto.MidtransWebhookRequest{
		TransactionTime:   "2025-03-01 12:34:56",
		TransactionStatus: "settlement",
		TransactionId:     "tx-1",
		StatusCode:        "200",
		OrderId:           "order-1",
		GrossAmount:       "150000.00",
		SignatureKey:      sign("order-1", "200", "150000.00", testServerKey),
		CustomField1:      "1001",
	}

	ev, err := n.Normalize(req, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 34, 56, 0, time.UTC), ev.OccurredAt)

	// Unparseable timestamps fall back to the receive time.
	req.TransactionTime = "yesterday-ish"
	ev, err = n.Normalize(req, now)
	require.NoError(t, err)
	assert.Equal(t, now, ev.OccurredAt)
}

func TestNormalize_EventIDFallsBackToOrderID(t *testing.T) {
	n := NewNotificationNormalizer(testServerKey)
	req := &dto.MidtransWebhookRequest{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderId:           "order-1",
		GrossAmount:       "150000.00",
		SignatureKey:      sign("order-1", "200", "150000.00", testServerKey),
		CustomField1:      "1001",
	}

	ev, err := n.Normalize(req, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "order-1:settlement", ev.EventID)
}
