// FILE: internal/dto/payment_dto.go
package dto

import "time"

// MidtransWebhookRequest mirrors the gateway's HTTP notification body.
// Only the normalizer reads it; everything downstream works on
// entity.PaymentEvent.
type MidtransWebhookRequest struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionId     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderId           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	// CustomField1 carries the Telegram user id the checkout stamped on the
	// transaction. Its absence on an authenticated payload is a metadata
	// bug on our side, not an attack, and is reported as such.
	CustomField1 string `json:"custom_field1"`
}

type CheckoutRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
}

type CheckoutResponse struct {
	OrderId         string `json:"order_id"`
	SnapToken       string `json:"snap_token"`
	SnapRedirectUrl string `json:"snap_redirect_url"`
}

type SubscriptionStatusResponse struct {
	State         string     `json:"state"`
	IsActive      bool       `json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}

type SweepResponse struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type WebhookEventResponse struct {
	Provider        string     `json:"provider"`
	ProviderEventId string     `json:"provider_event_id"`
	EventType       string     `json:"event_type"`
	SignatureValid  bool       `json:"signature_valid"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `json:"processing_error,omitempty"`
	ReceivedAt      time.Time  `json:"received_at"`
}
