package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  category TEXT NOT NULL,
  brand TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS products_slug_key ON products (slug);`,
		`CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  sku TEXT,
  size TEXT,
  color TEXT,
  price_paise INTEGER NOT NULL,
  compare_at_paise INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS product_variants_sku_key ON product_variants (sku) WHERE sku IS NOT NULL;`,
		`CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  url TEXT,
  gcs_key TEXT NOT NULL,
  alt_text TEXT,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
  variant_id TEXT PRIMARY KEY,
  available_qty INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newCatalogService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testTxRunner{db: db})
	require.NoError(t, err)
	return svc, repo, db
}

func linenShirtInput(qty int) CreateProductInput {
	return CreateProductInput{
		Title:    "Linen Camp Shirt",
		Category: "shirts",
		Status:   "active",
		Variants: []VariantInput{
			{
				Name:       "M / Sand",
				Price:      decimal.NewFromInt(1499),
				InitialQty: &qty,
			},
		},
	}
}

func TestCreateProductWithVariants(t *testing.T) {
	svc, repo, _ := newCatalogService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, linenShirtInput(12))
	require.NoError(t, err)

	assert.Equal(t, "linen-camp-shirt", dto.Slug)
	require.Len(t, dto.Variants, 1)
	assert.True(t, dto.Variants[0].Price.Equal(decimal.NewFromInt(1499)))
	require.NotNil(t, dto.Variants[0].AvailableQty)
	assert.Equal(t, 12, *dto.Variants[0].AvailableQty)

	variant, err := repo.FindVariant(ctx, dto.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(149900), variant.PricePaise)
	require.NotNil(t, variant.Inventory)
	assert.Equal(t, 12, variant.Inventory.AvailableQty)
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, linenShirtInput(1))
	require.NoError(t, err)

	_, err = svc.Create(ctx, linenShirtInput(1))
	require.Error(t, err)
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestCreateProductRejectsSubPaisePrice(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	input := linenShirtInput(1)
	input.Variants[0].Price = decimal.RequireFromString("14.995")
	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestGetBySlugHidesDrafts(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	input := linenShirtInput(1)
	input.Status = "draft"
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, created.Slug)
	require.Error(t, err)
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())

	// Admin reads see the draft.
	dto, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, dto.ID)
}

func TestListFiltersActiveOnly(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	active := linenShirtInput(1)
	_, err := svc.Create(ctx, active)
	require.NoError(t, err)

	draft := linenShirtInput(1)
	draft.Title = "Draft Overshirt"
	draft.Status = "draft"
	_, err = svc.Create(ctx, draft)
	require.NoError(t, err)

	result, err := svc.List(ctx, pagination.Params{}, ProductListFilters{})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "linen-camp-shirt", result.Products[0].Slug)
	assert.True(t, result.Products[0].PriceFrom.Equal(decimal.NewFromInt(1499)))

	all, err := svc.List(ctx, pagination.Params{}, ProductListFilters{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all.Products, 2)
}

func TestListCategoryAndQueryFilters(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	shirt := linenShirtInput(1)
	_, err := svc.Create(ctx, shirt)
	require.NoError(t, err)

	trousers := linenShirtInput(1)
	trousers.Title = "Pleated Wool Trousers"
	trousers.Category = "trousers"
	_, err = svc.Create(ctx, trousers)
	require.NoError(t, err)

	category := "trousers"
	result, err := svc.List(ctx, pagination.Params{}, ProductListFilters{Category: &category})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "pleated-wool-trousers", result.Products[0].Slug)

	result, err = svc.List(ctx, pagination.Params{}, ProductListFilters{Query: "camp"})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "linen-camp-shirt", result.Products[0].Slug)
}

func TestListCursorPagination(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	titles := []string{"Alpha Tee", "Bravo Tee", "Charlie Tee"}
	for _, title := range titles {
		input := linenShirtInput(1)
		input.Title = title
		_, err := svc.Create(ctx, input)
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, pagination.Params{Limit: 2}, ProductListFilters{})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, ProductListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Empty(t, second.NextCursor)
	assert.NotEqual(t, first.Products[0].ID, second.Products[0].ID)
}

func TestVariantLifecycle(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, linenShirtInput(1))
	require.NoError(t, err)

	qty := 4
	dto, err := svc.AddVariant(ctx, created.ID, VariantInput{
		Name:       "L / Indigo",
		Price:      decimal.NewFromInt(1599),
		InitialQty: &qty,
	})
	require.NoError(t, err)
	require.Len(t, dto.Variants, 2)

	var added VariantDTO
	for _, v := range dto.Variants {
		if v.Name == "L / Indigo" {
			added = v
		}
	}
	require.NotEqual(t, uuid.Nil, added.ID)

	newPrice := decimal.NewFromInt(1299)
	dto, err = svc.UpdateVariant(ctx, created.ID, added.ID, UpdateVariantInput{Price: &newPrice})
	require.NoError(t, err)
	for _, v := range dto.Variants {
		if v.ID == added.ID {
			assert.True(t, v.Price.Equal(newPrice))
		}
	}

	require.NoError(t, svc.DeleteVariant(ctx, created.ID, added.ID))
	dto, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, dto.Variants, 1)
}

func TestUpdateVariantWrongProduct(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, linenShirtInput(1))
	require.NoError(t, err)

	active := false
	_, err = svc.UpdateVariant(ctx, uuid.New(), created.Variants[0].ID, UpdateVariantInput{IsActive: &active})
	require.Error(t, err)
	var coded *pkgerrors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}

func TestArchiveProduct(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, linenShirtInput(1))
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, created.ID))

	_, err = svc.GetBySlug(ctx, created.Slug)
	require.Error(t, err)
}

func TestFindPurchasableVariants(t *testing.T) {
	svc, repo, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, linenShirtInput(5))
	require.NoError(t, err)
	variantID := created.Variants[0].ID

	resolved, err := repo.FindPurchasableVariants(ctx, []uuid.UUID{variantID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	variant, ok := resolved[variantID]
	require.True(t, ok)
	assert.Equal(t, created.ID, variant.ProductID)
	assert.Equal(t, "Linen Camp Shirt", variant.ProductTitle)
	assert.Equal(t, int64(149900), variant.PricePaise)
	assert.True(t, variant.IsActive)
}

func TestImageLifecycle(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, linenShirtInput(1))
	require.NoError(t, err)

	dto, err := svc.AddImage(ctx, created.ID, ImageInput{GCSKey: "products/linen-front.png", Position: 0})
	require.NoError(t, err)
	require.Len(t, dto.Images, 1)

	require.NoError(t, svc.DeleteImage(ctx, created.ID, dto.Images[0].ID))
	dto, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, dto.Images)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Linen Camp Shirt":    "linen-camp-shirt",
		"  Overdyed  Tee!  ":  "overdyed-tee",
		"Crop 3/4 Chino":      "crop-3-4-chino",
		"---":                 "",
		"Édition":             "dition",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "input %q", input)
	}
}
