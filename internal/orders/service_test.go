package orders

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wovenlane/wovenlane-backend/internal/inventory"
	product "github.com/wovenlane/wovenlane-backend/internal/products"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/logger"
	"github.com/wovenlane/wovenlane-backend/pkg/metrics"
	"github.com/wovenlane/wovenlane-backend/pkg/outbox"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
	"github.com/wovenlane/wovenlane-backend/pkg/razorpay"
	"github.com/wovenlane/wovenlane-backend/pkg/types"
)

const stubGatewaySecret = "test_key_secret"

type stubGateway struct {
	created []razorpay.OrderCreateParams
	fail    bool
	nextID  int
}

func (g *stubGateway) CreateOrder(_ context.Context, params razorpay.OrderCreateParams) (*razorpay.Order, error) {
	if g.fail {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway unavailable")
	}
	g.created = append(g.created, params)
	g.nextID++
	return &razorpay.Order{
		ID:          fmt.Sprintf("order_stub_%d", g.nextID),
		AmountPaise: params.AmountPaise,
		Currency:    params.Currency,
		Receipt:     params.Receipt,
		Status:      "created",
	}, nil
}

func (g *stubGateway) KeyID() string         { return "rzp_test_wovenlane" }
func (g *stubGateway) Currency() string      { return "INR" }
func (g *stubGateway) SigningSecret() string { return stubGatewaySecret }

type serviceTxRunner struct {
	db *gorm.DB
}

func (r serviceTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := setupOrdersTestDB(t)

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
		`CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  sku TEXT,
  size TEXT,
  color TEXT,
  price_paise INTEGER NOT NULL,
  compare_at_price_paise INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
  variant_id TEXT PRIMARY KEY,
  available_qty INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate ON outbox_events (event_type, aggregate_type, aggregate_id);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, title string, pricePaise int64, stock int, active bool) (uuid.UUID, uuid.UUID) {
	t.Helper()
	productID := uuid.New()
	variantID := uuid.New()
	status := "active"
	if !active {
		status = "archived"
	}
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, title, slug, category, status) VALUES (?, ?, ?, 'shirts', ?)`,
		productID, title, product.Slugify(title), status,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO product_variants (id, product_id, name, price_paise, is_active) VALUES (?, ?, 'M / Indigo', ?, 1)`,
		variantID, productID, pricePaise,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO inventory_items (variant_id, available_qty) VALUES (?, ?)`,
		variantID, stock,
	).Error)
	return productID, variantID
}

func availableQty(t *testing.T, db *gorm.DB, variantID uuid.UUID) int {
	t.Helper()
	var qty int
	require.NoError(t, db.Raw(`SELECT available_qty FROM inventory_items WHERE variant_id = ?`, variantID).Scan(&qty).Error)
	return qty
}

func countRows(t *testing.T, db *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Raw(query, args...).Scan(&count).Error)
	return count
}

func newOrderService(t *testing.T, db *gorm.DB, gw *stubGateway, allowBackorder bool) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard, Level: zerolog.ErrorLevel})
	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(db),
		TxRunner:       serviceTxRunner{db: db},
		Gateway:        gw,
		Catalog:        product.NewRepository(db),
		Inventory:      inventory.NewRepository(db),
		Outbox:         outbox.NewService(outbox.NewRepository(db), logg),
		Metrics:        metrics.NewOrderMetrics(prometheus.NewRegistry()),
		Logger:         logg,
		AllowBackorder: allowBackorder,
	})
	require.NoError(t, err)
	return svc
}

func checkoutInput(productID, variantID uuid.UUID, qty int, total decimal.Decimal) CreateOrderInput {
	return CreateOrderInput{
		Items: []OrderItemInput{{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  qty,
		}},
		ShippingAddress: types.Address{
			FullName:   "Asha Rao",
			Line1:      "14 Lakeview Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Country:    "IN",
		},
		ClientTotal: total,
	}
}

func assertOrderErrCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded, "expected coded error, got %v", err)
	assert.Equal(t, code, coded.Code())
}

var orderNumberRe = regexp.MustCompile(`^ORD-\d+-[0-9A-Z]{9}$`)

func TestCreateOrderRecomputesTotalAndPersistsAtomically(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)

	handle, err := svc.Create(ctx, userID, checkoutInput(productID, variantID, 2, decimal.NewFromInt(1000)))
	require.NoError(t, err)

	assert.Equal(t, int64(100000), handle.AmountPaise)
	assert.Equal(t, "INR", handle.Currency)
	assert.Equal(t, "rzp_test_wovenlane", handle.GatewayKeyID)
	assert.Regexp(t, orderNumberRe, handle.OrderNumber)

	require.Len(t, gw.created, 1)
	assert.Equal(t, int64(100000), gw.created[0].AmountPaise)
	assert.Equal(t, handle.OrderNumber, gw.created[0].Receipt)
	assert.Equal(t, handle.OrderNumber, gw.created[0].Notes["order_number"])
	assert.Equal(t, userID.String(), gw.created[0].Notes["user_id"])

	detail, err := svc.GetForUser(ctx, userID, handle.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, detail.Status)
	assert.Equal(t, enums.PaymentStatusPending, detail.PaymentStatus)
	require.NotNil(t, detail.GatewayOrderID)
	assert.Equal(t, handle.GatewayOrderID, *detail.GatewayOrderID)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, 2, detail.Items[0].Quantity)
	assert.True(t, detail.Items[0].UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.True(t, detail.Total.Equal(decimal.NewFromInt(1000)))

	created := countRows(t, db, `SELECT COUNT(*) FROM outbox_events WHERE event_type = ? AND aggregate_id = ?`,
		enums.EventOrderCreated, handle.OrderID)
	assert.Equal(t, int64(1), created)

	assert.Equal(t, 10, availableQty(t, db, variantID), "stock is untouched until payment clears")
}

func TestCreateOrderRejectsTotalMismatch(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)

	_, err := svc.Create(context.Background(), uuid.New(), checkoutInput(productID, variantID, 2, decimal.NewFromInt(999)))
	assertOrderErrCode(t, err, pkgerrors.CodeValidation)
	assert.Empty(t, gw.created, "a mismatched total must never reach the gateway")
	assert.Equal(t, int64(0), countRows(t, db, `SELECT COUNT(*) FROM orders`))
}

func TestCreateOrderGatewayFailureLeavesNothingBehind(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{fail: true}
	svc := newOrderService(t, db, gw, false)
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)

	_, err := svc.Create(context.Background(), uuid.New(), checkoutInput(productID, variantID, 1, decimal.NewFromInt(500)))
	assertOrderErrCode(t, err, pkgerrors.CodeDependency)
	assert.Equal(t, int64(0), countRows(t, db, `SELECT COUNT(*) FROM orders`))
	assert.Equal(t, int64(0), countRows(t, db, `SELECT COUNT(*) FROM outbox_events`))
}

func TestCreateOrderValidation(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)
	inactiveProductID, inactiveVariantID := seedVariant(t, db, "Retired Jacket", 80000, 5, false)

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.Nil, checkoutInput(productID, variantID, 1, decimal.NewFromInt(500)))
		assertOrderErrCode(t, err, pkgerrors.CodeUnauthorized)
	})

	t.Run("empty items", func(t *testing.T) {
		input := checkoutInput(productID, variantID, 1, decimal.NewFromInt(500))
		input.Items = nil
		_, err := svc.Create(ctx, userID, input)
		assertOrderErrCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := svc.Create(ctx, userID, checkoutInput(productID, variantID, 0, decimal.NewFromInt(500)))
		assertOrderErrCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("missing address", func(t *testing.T) {
		input := checkoutInput(productID, variantID, 1, decimal.NewFromInt(500))
		input.ShippingAddress = types.Address{}
		_, err := svc.Create(ctx, userID, input)
		assertOrderErrCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := svc.Create(ctx, userID, checkoutInput(productID, uuid.New(), 1, decimal.NewFromInt(500)))
		assertOrderErrCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("variant from another product", func(t *testing.T) {
		_, err := svc.Create(ctx, userID, checkoutInput(uuid.New(), variantID, 1, decimal.NewFromInt(500)))
		assertOrderErrCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("archived product", func(t *testing.T) {
		_, err := svc.Create(ctx, userID, checkoutInput(inactiveProductID, inactiveVariantID, 1, decimal.NewFromInt(800)))
		assertOrderErrCode(t, err, pkgerrors.CodeStateConflict)
	})

	assert.Empty(t, gw.created)
}

func createPendingOrder(t *testing.T, svc Service, userID, productID, variantID uuid.UUID, qty int, total decimal.Decimal) *OrderHandle {
	t.Helper()
	handle, err := svc.Create(context.Background(), userID, checkoutInput(productID, variantID, qty, total))
	require.NoError(t, err)
	return handle
}

func confirmInput(handle *OrderHandle, paymentID, secret string) ConfirmPaymentInput {
	return ConfirmPaymentInput{
		OrderID:          handle.OrderID,
		GatewayOrderID:   handle.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        razorpay.SignPayment(secret, handle.GatewayOrderID, paymentID),
	}
}

func TestConfirmPaymentHappyPath(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)
	handle := createPendingOrder(t, svc, userID, productID, variantID, 2, decimal.NewFromInt(1000))

	result, err := svc.ConfirmPayment(ctx, userID, confirmInput(handle, "pay_123", stubGatewaySecret))
	require.NoError(t, err)
	assert.Equal(t, handle.OrderID, result.OrderID)
	assert.Equal(t, enums.OrderStatusProcessing, result.Status)
	assert.Equal(t, enums.PaymentStatusPaid, result.PaymentStatus)
	assert.False(t, result.PaidAt.IsZero())

	detail, err := svc.GetForUser(ctx, userID, handle.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, detail.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, detail.Status)
	require.NotNil(t, detail.PaidAt)

	assert.Equal(t, 8, availableQty(t, db, variantID))

	paid := countRows(t, db, `SELECT COUNT(*) FROM outbox_events WHERE event_type = ? AND aggregate_id = ?`,
		enums.EventOrderPaid, handle.OrderID)
	assert.Equal(t, int64(1), paid)
}

func TestConfirmPaymentRejectsBadSignature(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)
	handle := createPendingOrder(t, svc, userID, productID, variantID, 2, decimal.NewFromInt(1000))

	_, err := svc.ConfirmPayment(ctx, userID, confirmInput(handle, "pay_123", "wrong_secret"))
	assertOrderErrCode(t, err, pkgerrors.CodePaymentVerification)

	detail, err := svc.GetForUser(ctx, userID, handle.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, detail.PaymentStatus, "a forged callback must not mutate the order")
	assert.Equal(t, 10, availableQty(t, db, variantID))
}

func TestConfirmPaymentReplayIsNotFound(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)
	handle := createPendingOrder(t, svc, userID, productID, variantID, 2, decimal.NewFromInt(1000))
	input := confirmInput(handle, "pay_123", stubGatewaySecret)

	_, err := svc.ConfirmPayment(ctx, userID, input)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, userID, input)
	assertOrderErrCode(t, err, pkgerrors.CodeNotFound)

	assert.Equal(t, 8, availableQty(t, db, variantID), "replay must not decrement twice")
}

func TestConfirmPaymentWrongOwnerIsNotFound(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	owner := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)
	handle := createPendingOrder(t, svc, owner, productID, variantID, 1, decimal.NewFromInt(500))

	_, err := svc.ConfirmPayment(ctx, uuid.New(), confirmInput(handle, "pay_123", stubGatewaySecret))
	assertOrderErrCode(t, err, pkgerrors.CodeNotFound)

	detail, err := svc.GetForUser(ctx, owner, handle.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, detail.PaymentStatus)
}

func TestConfirmPaymentShortStockIsSkipped(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 1, true)
	handle := createPendingOrder(t, svc, userID, productID, variantID, 2, decimal.NewFromInt(1000))

	result, err := svc.ConfirmPayment(ctx, userID, confirmInput(handle, "pay_123", stubGatewaySecret))
	require.NoError(t, err, "payment already cleared, a short line must not fail the customer")
	assert.Equal(t, enums.PaymentStatusPaid, result.PaymentStatus)
	assert.Equal(t, 1, availableQty(t, db, variantID), "short decrement is skipped, never partial")
}

func TestConfirmPaymentBackorderGoesNegative(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, true)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 1, true)
	handle := createPendingOrder(t, svc, userID, productID, variantID, 2, decimal.NewFromInt(1000))

	_, err := svc.ConfirmPayment(ctx, userID, confirmInput(handle, "pay_123", stubGatewaySecret))
	require.NoError(t, err)
	assert.Equal(t, -1, availableQty(t, db, variantID))
}

func TestUpdateShippingTransitions(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)
	handle := createPendingOrder(t, svc, userID, productID, variantID, 1, decimal.NewFromInt(500))

	_, err := svc.UpdateShipping(ctx, handle.OrderID, enums.OrderStatusShipped)
	assertOrderErrCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.ConfirmPayment(ctx, userID, confirmInput(handle, "pay_123", stubGatewaySecret))
	require.NoError(t, err)

	shipped, err := svc.UpdateShipping(ctx, handle.OrderID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, shipped.Status)

	_, err = svc.UpdateShipping(ctx, handle.OrderID, enums.OrderStatusCancelled)
	assertOrderErrCode(t, err, pkgerrors.CodeStateConflict)

	delivered, err := svc.UpdateShipping(ctx, handle.OrderID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	assert.Equal(t, enums.PaymentStatusPaid, delivered.PaymentStatus)

	_, err = svc.UpdateShipping(ctx, handle.OrderID, enums.OrderStatusDelivered)
	assertOrderErrCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.UpdateShipping(ctx, uuid.New(), enums.OrderStatusShipped)
	assertOrderErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestListForUserViaService(t *testing.T) {
	db := setupCheckoutTestDB(t)
	gw := &stubGateway{}
	svc := newOrderService(t, db, gw, false)
	ctx := context.Background()
	userID := uuid.New()
	productID, variantID := seedVariant(t, db, "Linen Camp Shirt", 50000, 10, true)
	createPendingOrder(t, svc, userID, productID, variantID, 2, decimal.NewFromInt(1000))

	list, err := svc.ListForUser(ctx, userID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, 2, list.Orders[0].ItemCount)
	assert.True(t, list.Orders[0].Total.Equal(decimal.NewFromInt(1000)))
}
