package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbpkg "github.com/wovenlane/wovenlane-backend/pkg/db"
	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/money"
)

// EntryDTO is one saved product in the wishlist payload.
type EntryDTO struct {
	ProductID uuid.UUID           `json:"product_id"`
	Title     string              `json:"title"`
	Slug      string              `json:"slug"`
	Category  string              `json:"category"`
	Status    enums.ProductStatus `json:"status"`
	PriceFrom *decimal.Decimal    `json:"price_from,omitempty"`
	AddedAt   time.Time           `json:"added_at"`
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the per-user wishlist operations.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) ([]EntryDTO, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) ([]EntryDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]EntryDTO, error)
}

type service struct {
	repo     *Repository
	products productFinder
}

// NewService builds the wishlist service.
func NewService(repo *Repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) ([]EntryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return s.List(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) ([]EntryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	removed, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return s.List(ctx, userID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]EntryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListRows(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}

	entries := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		entry := EntryDTO{
			ProductID: row.ProductID,
			Title:     row.Title,
			Slug:      row.Slug,
			Category:  row.Category,
			Status:    enums.ProductStatus(row.Status),
			AddedAt:   row.AddedAt,
		}
		if row.MinPaise.Valid {
			price := money.PaiseToRupees(row.MinPaise.Int64)
			entry.PriceFrom = &price
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
