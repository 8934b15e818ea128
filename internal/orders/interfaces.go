package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
)

// OrderPage is one cursor page of order rows with items preloaded.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	// MarkPaid flips a still-pending order owned by userID to
	// paid/processing in one conditional update. Returns false when no
	// row matched, which covers unknown ids, other owners, and replays.
	MarkPaid(ctx context.Context, orderID, userID uuid.UUID, gatewayPaymentID, gatewaySignature string, paidAt time.Time) (bool, error)
	FindForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error)
	ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderPage, error)
	// UpdateShippingStatus advances the fulfillment status only when the
	// row still holds the expected current status.
	UpdateShippingStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	ListLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)
}
