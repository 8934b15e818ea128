package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductImage stores ordered gallery entries for products.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_images_product_id_idx"`
	URL       *string   `gorm:"column:url"`
	GCSKey    string    `gorm:"column:gcs_key;not null"`
	AltText   *string   `gorm:"column:alt_text"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
