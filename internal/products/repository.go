package product

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateProduct inserts a product row with any nested variants and images.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProductFields applies a partial column update.
func (r *Repository) UpdateProductFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProduct removes a product; variants, images, and inventory rows
// cascade at the database level.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) preloadDetail(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Variants.Inventory").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// FindByID loads the product with variants, inventory, and images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.preloadDetail(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product with associations by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.preloadDetail(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type productListQuery struct {
	Pagination pagination.Params
	Filters    ProductListFilters
}

// ListSummaries returns a cursor-paginated page of product summaries.
func (r *Repository) ListSummaries(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	priceFromClause := "(SELECT MIN(v.price_paise) FROM product_variants v WHERE v.product_id = p.id AND v.is_active)"

	qb := r.db.WithContext(ctx).
		Table("products p").
		Select(strings.Join([]string{
			"p.id",
			"p.title",
			"p.slug",
			"p.category",
			"p.brand",
			"p.status",
			"p.is_featured",
			priceFromClause + " AS price_from_paise",
			"p.created_at",
			"p.updated_at",
		}, ", "))

	filter := query.Filters
	if !filter.IncludeInactive {
		qb = qb.Where("p.status = ?", enums.ProductStatusActive)
	}
	if filter.Category != nil {
		qb = qb.Where("p.category = ?", *filter.Category)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(p.title) LIKE ? OR LOWER(p.slug) LIKE ?)", pattern, pattern)
	}

	if cursor != nil {
		qb = qb.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("p.created_at DESC").Order("p.id DESC").Limit(limitWithBuffer)

	var records []productSummaryRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]ProductSummary, 0, len(resultRows))
	for _, record := range resultRows {
		summaries = append(summaries, record.toSummary())
	}

	return &ProductListResult{
		Products:   summaries,
		NextCursor: nextCursor,
	}, nil
}

type productSummaryRecord struct {
	ID             uuid.UUID
	Title          string
	Slug           string
	Category       string
	Brand          sql.NullString
	Status         string
	IsFeatured     bool
	PriceFromPaise sql.NullInt64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r productSummaryRecord) toSummary() ProductSummary {
	summary := ProductSummary{
		ID:         r.ID,
		Title:      r.Title,
		Slug:       r.Slug,
		Category:   r.Category,
		Status:     enums.ProductStatus(r.Status),
		IsFeatured: r.IsFeatured,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Brand.Valid {
		brand := r.Brand.String
		summary.Brand = &brand
	}
	if r.PriceFromPaise.Valid {
		summary.PriceFrom = paiseToRupees(r.PriceFromPaise.Int64)
	}
	return summary
}

// CreateVariant inserts a variant with its optional inventory row.
func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) (*models.ProductVariant, error) {
	if err := r.db.WithContext(ctx).Create(variant).Error; err != nil {
		return nil, err
	}
	return variant, nil
}

// FindVariant loads a variant with its inventory row.
func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		First(&variant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// UpdateVariantFields applies a partial column update.
func (r *Repository) UpdateVariantFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteVariant removes a variant; its inventory row cascades.
func (r *Repository) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductVariant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateImage attaches a gallery entry to a product.
func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) (*models.ProductImage, error) {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return nil, err
	}
	return image, nil
}

// DeleteImage removes a gallery entry scoped to its product.
func (r *Repository) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		Delete(&models.ProductImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PurchasableVariant is the catalog snapshot checkout prices against.
type PurchasableVariant struct {
	VariantID     uuid.UUID
	ProductID     uuid.UUID
	ProductTitle  string
	ProductStatus enums.ProductStatus
	VariantName   string
	SKU           *string
	PricePaise    int64
	IsActive      bool
}

// FindPurchasableVariants resolves catalog pricing for the given variant
// ids in one query. Missing ids are simply absent from the result.
func (r *Repository) FindPurchasableVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PurchasableVariant, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]PurchasableVariant{}, nil
	}

	type row struct {
		VariantID     uuid.UUID
		ProductID     uuid.UUID
		ProductTitle  string
		ProductStatus string
		VariantName   string
		SKU           sql.NullString
		PricePaise    int64
		IsActive      bool
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("product_variants v").
		Select(strings.Join([]string{
			"v.id AS variant_id",
			"v.product_id",
			"p.title AS product_title",
			"p.status AS product_status",
			"v.name AS variant_name",
			"v.sku",
			"v.price_paise",
			"v.is_active",
		}, ", ")).
		Joins("JOIN products p ON p.id = v.product_id").
		Where("v.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]PurchasableVariant, len(rows))
	for _, record := range rows {
		variant := PurchasableVariant{
			VariantID:     record.VariantID,
			ProductID:     record.ProductID,
			ProductTitle:  record.ProductTitle,
			ProductStatus: enums.ProductStatus(record.ProductStatus),
			VariantName:   record.VariantName,
			PricePaise:    record.PricePaise,
			IsActive:      record.IsActive,
		}
		if record.SKU.Valid {
			sku := record.SKU.String
			variant.SKU = &sku
		}
		result[record.VariantID] = variant
	}
	return result, nil
}
