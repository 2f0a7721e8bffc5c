// FILE: internal/service/normalizer_service.go
package service

import (
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vip-gatekeeper-be/internal/dto"
	"vip-gatekeeper-be/internal/entity"
)

var (
	// ErrInvalidSignature marks a notification that failed authentication.
	// Nothing downstream may see it.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnresolvableUser marks an authenticated notification we cannot
	// correlate to a user. Distinct from ErrInvalidSignature so operators
	// can tell a bad actor from our own checkout metadata bug.
	ErrUnresolvableUser = errors.New("notification carries no resolvable user id")
)

const midtransTimeLayout = "2006-01-02 15:04:05"

type INotificationNormalizer interface {
	// Normalize authenticates the raw gateway notification and converts it
	// to the internal event vocabulary. A nil event with a nil error means
	// the notification is genuine but carries nothing actionable (pending,
	// refund chatter, unknown statuses).
	Normalize(req *dto.MidtransWebhookRequest, now time.Time) (*entity.PaymentEvent, error)
}

type notificationNormalizer struct {
	serverKey string
}

func NewNotificationNormalizer(serverKey string) INotificationNormalizer {
	return &notificationNormalizer{serverKey: serverKey}
}

func (n *notificationNormalizer) Normalize(req *dto.MidtransWebhookRequest, now time.Time) (*entity.PaymentEvent, error) {
	if n.serverKey == "" {
		return nil, fmt.Errorf("server key not configured")
	}

	// Midtrans signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + n.serverKey
	expected := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(req.SignatureKey)) != 1 {
		return nil, ErrInvalidSignature
	}

	var kind entity.PaymentEventKind
	switch req.TransactionStatus {
	case "capture", "settlement":
		kind = entity.PaymentCompleted
	case "deny", "cancel", "expire":
		kind = entity.PaymentFailed
	default:
		// pending and anything unknown: acknowledged, nothing to apply.
		return nil, nil
	}

	userID := req.CustomField1
	if userID == "" {
		return nil, ErrUnresolvableUser
	}
	if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
		return nil, ErrUnresolvableUser
	}

	occurredAt := now
	if req.TransactionTime != "" {
		if t, err := time.Parse(midtransTimeLayout, req.TransactionTime); err == nil {
			occurredAt = t.UTC()
		}
	}

	eventKey := req.TransactionId
	if eventKey == "" {
		eventKey = req.OrderId
	}

	return &entity.PaymentEvent{
		// Redelivered notifications reuse the transaction id and status, so
		// they collapse onto the same event id.
		EventID:    eventKey + ":" + req.TransactionStatus,
		UserID:     userID,
		Kind:       kind,
		PaymentRef: req.OrderId,
		OccurredAt: occurredAt,
		Payload: map[string]interface{}{
			"transaction_status": req.TransactionStatus,
			"payment_type":       req.PaymentType,
			"gross_amount":       req.GrossAmount,
			"fraud_status":       req.FraudStatus,
		},
	}, nil
}
