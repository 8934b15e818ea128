package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemInput carries the add-to-cart payload.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

// ItemDTO is one cart row joined with its catalog snapshot. Prices are
// rupee amounts computed from the live catalog, not stored on the cart.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	Title       string          `json:"title"`
	VariantName string          `json:"variant_name"`
	SKU         *string         `json:"sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CartDTO is the assembled cart returned to the storefront.
type CartDTO struct {
	Items    []ItemDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
