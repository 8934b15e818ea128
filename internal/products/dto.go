package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wovenlane/wovenlane-backend/pkg/enums"
)

// VariantDTO is the purchasable variant payload returned to clients.
// Prices are rupee amounts.
type VariantDTO struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	SKU            *string          `json:"sku,omitempty"`
	Size           *string          `json:"size,omitempty"`
	Color          *string          `json:"color,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	IsActive       bool             `json:"is_active"`
	AvailableQty   *int             `json:"available_qty,omitempty"`
}

// ImageDTO captures gallery metadata for a product.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      *string   `json:"url,omitempty"`
	GCSKey   string    `json:"gcs_key"`
	AltText  *string   `json:"alt_text,omitempty"`
	Position int       `json:"position"`
}

// ProductDTO is the full product payload for detail reads.
type ProductDTO struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Slug        string              `json:"slug"`
	Description *string             `json:"description,omitempty"`
	Category    string              `json:"category"`
	Brand       *string             `json:"brand,omitempty"`
	Status      enums.ProductStatus `json:"status"`
	IsFeatured  bool                `json:"is_featured"`
	Variants    []VariantDTO        `json:"variants"`
	Images      []ImageDTO          `json:"images"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ProductSummary is the condensed row returned by list endpoints.
type ProductSummary struct {
	ID         uuid.UUID           `json:"id"`
	Title      string              `json:"title"`
	Slug       string              `json:"slug"`
	Category   string              `json:"category"`
	Brand      *string             `json:"brand,omitempty"`
	Status     enums.ProductStatus `json:"status"`
	IsFeatured bool                `json:"is_featured"`
	PriceFrom  decimal.Decimal     `json:"price_from"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ProductListResult wraps the paginated summaries plus the next cursor.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ProductListFilters describe the inputs supported by the product list.
type ProductListFilters struct {
	Category *string
	Query    string
	// IncludeInactive opens the list beyond active products. Admin only.
	IncludeInactive bool
}

// VariantInput carries variant fields for create and update calls.
type VariantInput struct {
	Name           string
	SKU            *string
	Size           *string
	Color          *string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	IsActive       *bool
	InitialQty     *int
}

// CreateProductInput carries the admin product create payload. Slug is
// derived from the title when absent.
type CreateProductInput struct {
	Title       string
	Slug        string
	Description *string
	Category    string
	Brand       *string
	Status      enums.ProductStatus
	IsFeatured  bool
	Variants    []VariantInput
}

// UpdateProductInput applies partial updates; nil fields are untouched.
type UpdateProductInput struct {
	Title       *string
	Description *string
	Category    *string
	Brand       *string
	Status      *enums.ProductStatus
	IsFeatured  *bool
}

// UpdateVariantInput applies partial variant updates.
type UpdateVariantInput struct {
	Name           *string
	SKU            *string
	Size           *string
	Color          *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	IsActive       *bool
}

// ImageInput attaches an uploaded object to a product.
type ImageInput struct {
	GCSKey   string
	URL      *string
	AltText  *string
	Position int
}
