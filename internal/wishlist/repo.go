package wishlist

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
)

// Repository owns the per-user wishlist rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a wishlist repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts the wishlist row; re-adding the same product is a no-op.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	item := &models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item).Error
}

// Remove deletes the wishlist row scoped to its owner.
func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Row is a wishlist entry joined with its product summary.
type Row struct {
	ProductID uuid.UUID
	Title     string
	Slug      string
	Category  string
	Status    string
	MinPaise  sql.NullInt64
	AddedAt   time.Time
}

// ListRows returns the user's wishlist joined with catalog data, newest
// additions first.
func (r *Repository) ListRows(ctx context.Context, userID uuid.UUID) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).
		Table("wishlist_items w").
		Select(`w.product_id, p.title, p.slug, p.category, p.status,
			(SELECT MIN(v.price_paise) FROM product_variants v WHERE v.product_id = p.id AND v.is_active) AS min_paise,
			w.created_at AS added_at`).
		Joins("JOIN products p ON p.id = w.product_id").
		Where("w.user_id = ?", userID).
		Order("w.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
