package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks the available count per variant.
type InventoryItem struct {
	VariantID    uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
