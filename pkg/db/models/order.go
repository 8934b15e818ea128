package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	"github.com/wovenlane/wovenlane-backend/pkg/types"
)

// Order is the purchase record produced from a checkout. Monetary amounts are
// stored in paise; the line items snapshot catalog data at purchase time.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	OrderNumber      string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Currency         enums.Currency      `gorm:"column:currency;type:text;not null;default:'INR'"`
	SubtotalPaise    int64               `gorm:"column:subtotal_paise;not null"`
	TotalPaise       int64               `gorm:"column:total_paise;not null"`
	ShippingAddress  types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Notes            *string             `gorm:"column:notes"`
	GatewayOrderID   *string             `gorm:"column:gateway_order_id;index:orders_gateway_order_id_idx"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id"`
	GatewaySignature *string             `gorm:"column:gateway_signature"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
	Items            []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
