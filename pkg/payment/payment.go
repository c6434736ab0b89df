package payment

import (
	"context"
	"time"
)

type PaymentRequest struct {
	OrderID       string // unique order reference; echoed back in the callback
	AmountCents   int64
	Currency      string
	Description   string
	CustomerPhone string // e.g. 254712345678
	CustomerName  string
	CustomerEmail string
	CallbackURL   string
}

type PaymentResponse struct {
	Reference         string
	Status            string
	CheckoutRequestID string
	ExpiresAt         time.Time
}

// Provider initiates customer payments for orders.
type Provider interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
}
