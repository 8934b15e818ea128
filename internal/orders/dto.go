package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	"github.com/wovenlane/wovenlane-backend/pkg/types"
)

// OrderItemInput is one requested line in a checkout payload.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// CreateOrderInput is the checkout request. ClientTotal is the amount the
// storefront showed the customer, in rupees; the server recomputes the
// charge from catalog prices and rejects a mismatch.
type CreateOrderInput struct {
	Items           []OrderItemInput `json:"items"`
	ShippingAddress types.Address    `json:"shipping_address"`
	Notes           *string          `json:"notes,omitempty"`
	ClientTotal     decimal.Decimal  `json:"total"`
}

// OrderHandle is returned from checkout with everything the storefront
// needs to open the gateway payment sheet.
type OrderHandle struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	GatewayOrderID string    `json:"gateway_order_id"`
	GatewayKeyID   string    `json:"gateway_key_id"`
	AmountPaise    int64     `json:"amount_paise"`
	Currency       string    `json:"currency"`
}

// ConfirmPaymentInput carries the gateway callback fields the storefront
// posts after the customer completes payment.
type ConfirmPaymentInput struct {
	OrderID          uuid.UUID `json:"order_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	Signature        string    `json:"signature"`
}

// ConfirmationResult reports the order state after a verified payment.
type ConfirmationResult struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaidAt        time.Time           `json:"paid_at"`
}

// LineItemDTO is a purchased line with its price snapshot in rupees.
type LineItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Name        string          `json:"name"`
	VariantName *string         `json:"variant_name,omitempty"`
	SKU         *string         `json:"sku,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// OrderDTO is the full order detail payload.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	Currency        enums.Currency      `json:"currency"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Total           decimal.Decimal     `json:"total"`
	ShippingAddress types.Address       `json:"shipping_address"`
	Notes           *string             `json:"notes,omitempty"`
	GatewayOrderID  *string             `json:"gateway_order_id,omitempty"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []LineItemDTO       `json:"items"`
}

// OrderSummary is the aggregated row returned in order lists.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Currency      enums.Currency      `json:"currency"`
	Total         decimal.Decimal     `json:"total"`
	ItemCount     int                 `json:"item_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps a page of summaries plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// AdminOrderFilters describe the inputs supported by the back-office
// orders list.
type AdminOrderFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}
