package product

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/wovenlane/wovenlane-backend/pkg/db"
	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/money"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the catalog operations for both the storefront and
// the back office.
type Service interface {
	List(ctx context.Context, params pagination.Params, filters ProductListFilters) (*ProductListResult, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Archive(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*ProductDTO, error)
	UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input UpdateVariantInput) (*ProductDTO, error)
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error
	AddImage(ctx context.Context, productID uuid.UUID, input ImageInput) (*ProductDTO, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the catalog service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ProductListFilters) (*ProductListResult, error) {
	result, err := s.repo.ListSummaries(ctx, productListQuery{Pagination: params, Filters: filters})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	record, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	// Drafts and archived products are invisible to the storefront.
	if record.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return toProductDTO(record), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toProductDTO(record), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug could not be derived from title")
	}

	record := &models.Product{
		ID:          uuid.New(),
		Title:       title,
		Slug:        slug,
		Description: input.Description,
		Category:    category,
		Brand:       input.Brand,
		Status:      status,
		IsFeatured:  input.IsFeatured,
	}

	variants := make([]models.ProductVariant, 0, len(input.Variants))
	for i, vi := range input.Variants {
		variant, err := buildVariant(vi)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("variant %d", i))
		}
		variants = append(variants, *variant)
	}
	record.Variants = variants

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).CreateProduct(ctx, record)
		return err
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "products_slug_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		if dbpkg.IsUniqueViolation(err, "product_variants_sku_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	return s.GetByID(ctx, record.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		updates["category"] = category
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		updates["status"] = *input.Status
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateProductFields(ctx, id, updates); err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetByID(ctx, id)
}

func (s *service) Archive(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	err := s.repo.UpdateProductFields(ctx, id, map[string]any{"status": enums.ProductStatusArchived})
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive product")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if dbpkg.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	variant, err := buildVariant(input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "variant")
	}
	variant.ProductID = productID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).CreateVariant(ctx, variant)
		return err
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "product_variants_sku_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create variant")
	}
	return s.GetByID(ctx, productID)
}

func (s *service) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input UpdateVariantInput) (*ProductDTO, error) {
	if productID == uuid.Nil || variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and variant id required")
	}

	existing, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if existing.ProductID != productID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name cannot be empty")
		}
		updates["name"] = name
	}
	if input.SKU != nil {
		updates["sku"] = *input.SKU
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.Price != nil {
		paise, err := money.RupeesToPaise(*input.Price)
		if err != nil || paise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant price")
		}
		updates["price_paise"] = paise
	}
	if input.CompareAtPrice != nil {
		paise, err := money.RupeesToPaise(*input.CompareAtPrice)
		if err != nil || paise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid compare-at price")
		}
		updates["compare_at_paise"] = paise
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateVariantFields(ctx, variantID, updates); err != nil {
		if dbpkg.IsUniqueViolation(err, "product_variants_sku_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant")
	}
	return s.GetByID(ctx, productID)
}

func (s *service) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	if productID == uuid.Nil || variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and variant id required")
	}
	existing, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if existing.ProductID != productID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if err := s.repo.DeleteVariant(ctx, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variant")
	}
	return nil
}

func (s *service) AddImage(ctx context.Context, productID uuid.UUID, input ImageInput) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if strings.TrimSpace(input.GCSKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gcs key required")
	}
	if input.Position < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position cannot be negative")
	}

	image := &models.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		GCSKey:    input.GCSKey,
		URL:       input.URL,
		AltText:   input.AltText,
		Position:  input.Position,
	}
	if _, err := s.repo.CreateImage(ctx, image); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create image")
	}
	return s.GetByID(ctx, productID)
}

func (s *service) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	if productID == uuid.Nil || imageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and image id required")
	}
	if err := s.repo.DeleteImage(ctx, productID, imageID); err != nil {
		if dbpkg.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	return nil
}

func buildVariant(input VariantInput) (*models.ProductVariant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("name required")
	}
	paise, err := money.RupeesToPaise(input.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	if paise < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}

	variant := &models.ProductVariant{
		ID:         uuid.New(),
		Name:       name,
		SKU:        input.SKU,
		Size:       input.Size,
		Color:      input.Color,
		PricePaise: paise,
		IsActive:   true,
	}
	if input.CompareAtPrice != nil {
		compareAt, err := money.RupeesToPaise(*input.CompareAtPrice)
		if err != nil || compareAt < 0 {
			return nil, fmt.Errorf("invalid compare-at price")
		}
		variant.CompareAtPaise = &compareAt
	}
	if input.IsActive != nil {
		variant.IsActive = *input.IsActive
	}
	if input.InitialQty != nil {
		if *input.InitialQty < 0 {
			return nil, fmt.Errorf("initial quantity cannot be negative")
		}
		variant.Inventory = &models.InventoryItem{AvailableQty: *input.InitialQty}
	}
	return variant, nil
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowers the title and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func paiseToRupees(paise int64) decimal.Decimal {
	return money.PaiseToRupees(paise)
}

func toProductDTO(record *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          record.ID,
		Title:       record.Title,
		Slug:        record.Slug,
		Description: record.Description,
		Category:    record.Category,
		Brand:       record.Brand,
		Status:      record.Status,
		IsFeatured:  record.IsFeatured,
		Variants:    make([]VariantDTO, 0, len(record.Variants)),
		Images:      make([]ImageDTO, 0, len(record.Images)),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	for _, variant := range record.Variants {
		item := VariantDTO{
			ID:       variant.ID,
			Name:     variant.Name,
			SKU:      variant.SKU,
			Size:     variant.Size,
			Color:    variant.Color,
			Price:    paiseToRupees(variant.PricePaise),
			IsActive: variant.IsActive,
		}
		if variant.CompareAtPaise != nil {
			compareAt := paiseToRupees(*variant.CompareAtPaise)
			item.CompareAtPrice = &compareAt
		}
		if variant.Inventory != nil {
			qty := variant.Inventory.AvailableQty
			item.AvailableQty = &qty
		}
		dto.Variants = append(dto.Variants, item)
	}
	for _, image := range record.Images {
		dto.Images = append(dto.Images, ImageDTO{
			ID:       image.ID,
			URL:      image.URL,
			GCSKey:   image.GCSKey,
			AltText:  image.AltText,
			Position: image.Position,
		})
	}
	return dto
}
