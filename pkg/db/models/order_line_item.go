package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem captures the snapshot of each item within an order.
type OrderLineItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index:order_line_items_order_id_idx"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	VariantName    *string    `gorm:"column:variant_name"`
	SKU            *string    `gorm:"column:sku"`
	UnitPricePaise int64      `gorm:"column:unit_price_paise;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	TotalPaise     int64      `gorm:"column:total_paise;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
