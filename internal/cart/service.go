package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/wovenlane/wovenlane-backend/internal/products"
	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/money"
)

// MaxQuantityPerItem caps how many units of one variant a cart can hold.
const MaxQuantityPerItem = 50

type catalog interface {
	FindPurchasableVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]product.PurchasableVariant, error)
}

// Service exposes the per-user cart operations.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	List(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    *Repository
	catalog catalog
}

// NewService builds the cart service.
func NewService(repo *Repository, catalog catalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil || input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and variant id required")
	}
	if input.Quantity < 1 || input.Quantity > MaxQuantityPerItem {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between 1 and %d", MaxQuantityPerItem))
	}

	resolved, err := s.catalog.FindPurchasableVariants(ctx, []uuid.UUID{input.VariantID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve variant")
	}
	variant, ok := resolved[input.VariantID]
	if !ok || variant.ProductID != input.ProductID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if !variant.IsActive || variant.ProductStatus != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "variant is not available")
	}

	item := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		Quantity:  input.Quantity,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	return s.List(ctx, userID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListRows(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}

	dto := &CartDTO{Items: make([]ItemDTO, 0, len(rows)), Subtotal: decimal.Zero}
	for _, row := range rows {
		unit := money.PaiseToRupees(row.PricePaise)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(row.Quantity)))
		item := ItemDTO{
			ID:          row.ID,
			ProductID:   row.ProductID,
			VariantID:   row.VariantID,
			Title:       row.Title,
			VariantName: row.VariantName,
			Quantity:    row.Quantity,
			UnitPrice:   unit,
			LineTotal:   lineTotal,
		}
		if row.SKU.Valid {
			sku := row.SKU.String
			item.SKU = &sku
		}
		dto.Items = append(dto.Items, item)
		dto.Subtotal = dto.Subtotal.Add(lineTotal)
	}
	return dto, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if quantity < 1 || quantity > MaxQuantityPerItem {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between 1 and %d", MaxQuantityPerItem))
	}

	updated, err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.List(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	removed, err := s.repo.Remove(ctx, userID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.List(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
