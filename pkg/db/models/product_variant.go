package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a purchasable size/color combination of a product.
// Prices are stored in paise.
type ProductVariant struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index:product_variants_product_id_idx"`
	Name           string         `gorm:"column:name;not null"`
	SKU            *string        `gorm:"column:sku;uniqueIndex:product_variants_sku_key"`
	Size           *string        `gorm:"column:size"`
	Color          *string        `gorm:"column:color"`
	PricePaise     int64          `gorm:"column:price_paise;not null"`
	CompareAtPaise *int64         `gorm:"column:compare_at_paise"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	Inventory      *InventoryItem `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
