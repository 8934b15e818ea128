package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	dbpkg "github.com/wovenlane/wovenlane-backend/pkg/db"
	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
)

// AdjustInput carries an admin stock adjustment. Exactly one of SetQty
// (absolute) or AddQty (relative, may be negative) must be provided.
type AdjustInput struct {
	VariantID uuid.UUID
	SetQty    *int
	AddQty    *int
}

// Service exposes the admin-facing stock operations.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryItem, error)
	Get(ctx context.Context, variantID uuid.UUID) (*models.InventoryItem, error)
}

type service struct {
	repo *Repository
}

// NewService builds the inventory service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryItem, error) {
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if (input.SetQty == nil) == (input.AddQty == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of available_qty or adjustment required")
	}

	switch {
	case input.SetQty != nil:
		if *input.SetQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "available_qty cannot be negative")
		}
		if err := s.repo.SetQuantity(ctx, input.VariantID, *input.SetQty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set inventory quantity")
		}
	default:
		delta := *input.AddQty
		if delta == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment cannot be zero")
		}
		if delta > 0 {
			if err := s.repo.Increment(ctx, input.VariantID, delta); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply inventory adjustment")
			}
		} else {
			// Corrections may not drive the count below zero.
			applied, err := s.repo.Decrement(ctx, input.VariantID, -delta, false)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply inventory adjustment")
			}
			if !applied {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "adjustment exceeds available stock")
			}
		}
	}

	return s.Get(ctx, input.VariantID)
}

func (s *service) Get(ctx context.Context, variantID uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.Get(ctx, variantID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}
