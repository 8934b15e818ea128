package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wovenlane/wovenlane-backend/pkg/enums"
)

// Product represents a catalog listing. Size and color combinations hang off
// the product as variants; pricing lives on the variant.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string              `gorm:"column:title;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	Description *string             `gorm:"column:description"`
	Category    string              `gorm:"column:category;not null;index:products_category_idx"`
	Brand       *string             `gorm:"column:brand"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'draft';index:products_status_idx"`
	IsFeatured  bool                `gorm:"column:is_featured;not null;default:false"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images      []ProductImage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
