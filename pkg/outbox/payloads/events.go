package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent signals a new order awaiting payment.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	UserID         uuid.UUID `json:"user_id"`
	TotalPaise     int64     `json:"total_paise"`
	Currency       string    `json:"currency"`
	GatewayOrderID string    `json:"gateway_order_id"`
	ItemCount      int       `json:"item_count"`
}

// OrderPaidEvent is emitted once payment verification succeeds and the order
// moves to processing.
type OrderPaidEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	UserID           uuid.UUID `json:"user_id"`
	TotalPaise       int64     `json:"total_paise"`
	Currency         string    `json:"currency"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	PaidAt           time.Time `json:"paid_at"`
}
