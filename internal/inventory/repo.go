package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
)

// Repository owns the per-variant stock counters. All mutations are
// relative SQL updates so concurrent confirmations never lose writes.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
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

// Get returns the counter row for a variant.
func (r *Repository) Get(ctx context.Context, variantID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "variant_id = ?", variantID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Decrement subtracts qty from a variant's available count. When
// allowNegative is false the update carries an available_qty >= qty
// predicate, so a short row simply matches zero rows. Returns whether
// the decrement was applied.
func (r *Repository) Decrement(ctx context.Context, variantID uuid.UUID, qty int, allowNegative bool) (bool, error) {
	if qty <= 0 {
		return false, nil
	}

	query := `
		UPDATE inventory_items
		SET available_qty = available_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ?`
	args := []any{qty, variantID}
	if !allowNegative {
		query += ` AND available_qty >= ?`
		args = append(args, qty)
	}

	res := r.db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementTx runs Decrement inside the caller's transaction.
func (r *Repository) DecrementTx(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, allowNegative bool) (bool, error) {
	return r.WithTx(tx).Decrement(ctx, variantID, qty, allowNegative)
}

// Increment adds qty back to a variant's available count.
func (r *Repository) Increment(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ?`, qty, variantID).Error
}

// SetQuantity upserts the counter row to an absolute count.
func (r *Repository) SetQuantity(ctx context.Context, variantID uuid.UUID, qty int) error {
	item := models.InventoryItem{VariantID: variantID, AvailableQty: qty}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "variant_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"available_qty": qty,
				"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(&item).Error
}
