package cart

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
)

// Repository owns the per-user cart rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the cart row or, when the (user, variant) pair already
// exists, bumps its quantity by the new amount.
func (r *Repository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "variant_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(item).Error
}

// UpdateQuantity sets the quantity of a cart row scoped to its owner.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes a cart row scoped to its owner.
func (r *Repository) Remove(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Clear removes every cart row for the user.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// Row is a cart entry joined with its catalog snapshot.
type Row struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	VariantID   uuid.UUID
	Title       string
	VariantName string
	SKU         sql.NullString
	Quantity    int
	PricePaise  int64
}

// ListRows returns the user's cart joined with live catalog titles and
// prices, oldest entries first.
func (r *Repository) ListRows(ctx context.Context, userID uuid.UUID) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("cart_items c").
		Select("c.id, c.product_id, c.variant_id, p.title, v.name AS variant_name, v.sku, c.quantity, v.price_paise").
		Joins("JOIN product_variants v ON v.id = c.variant_id").
		Joins("JOIN products p ON p.id = c.product_id").
		Where("c.user_id = ?", userID).
		Order("c.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
