package orders

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/wovenlane/wovenlane-backend/internal/products"
	dbpkg "github.com/wovenlane/wovenlane-backend/pkg/db"
	"github.com/wovenlane/wovenlane-backend/pkg/db/models"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/logger"
	"github.com/wovenlane/wovenlane-backend/pkg/metrics"
	"github.com/wovenlane/wovenlane-backend/pkg/money"
	"github.com/wovenlane/wovenlane-backend/pkg/outbox"
	"github.com/wovenlane/wovenlane-backend/pkg/outbox/payloads"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
	"github.com/wovenlane/wovenlane-backend/pkg/razorpay"
)

// MaxItemsPerOrder caps how many distinct lines a single checkout accepts.
const MaxItemsPerOrder = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.Order, error)
	KeyID() string
	Currency() string
	SigningSecret() string
}

type catalog interface {
	FindPurchasableVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]product.PurchasableVariant, error)
}

type inventoryStore interface {
	DecrementTx(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, allowNegative bool) (bool, error)
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderHandle, error)
	ConfirmPayment(ctx context.Context, userID uuid.UUID, input ConfirmPaymentInput) (*ConfirmationResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateShipping(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	Repo           Repository
	TxRunner       txRunner
	Gateway        paymentGateway
	Catalog        catalog
	Inventory      inventoryStore
	Outbox         outboxPublisher
	Metrics        *metrics.OrderMetrics
	Logger         *logger.Logger
	AllowBackorder bool
}

type service struct {
	repo           Repository
	tx             txRunner
	gateway        paymentGateway
	catalog        catalog
	inventory      inventoryStore
	outbox         outboxPublisher
	metrics        *metrics.OrderMetrics
	logg           *logger.Logger
	allowBackorder bool
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory store required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:           params.Repo,
		tx:             params.TxRunner,
		gateway:        params.Gateway,
		catalog:        params.Catalog,
		inventory:      params.Inventory,
		outbox:         params.Outbox,
		metrics:        params.Metrics,
		logg:           params.Logger,
		allowBackorder: params.AllowBackorder,
	}, nil
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newOrderNumber builds a human-quotable order reference. The suffix is
// random, not derived, so collisions are left to the unique index.
func newOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix), nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderHandle, error) {
	started := time.Now()
	handle, err := s.create(ctx, userID, input)
	if err != nil {
		s.metrics.IncCreated(createOutcome(err))
		return nil, err
	}
	s.metrics.IncCreated("success")
	s.metrics.ObserveCheckoutDuration(time.Since(started))
	return handle, nil
}

func createOutcome(err error) string {
	if coded := pkgerrors.As(err); coded != nil {
		return strings.ToLower(string(coded.Code()))
	}
	return "error"
}

func (s *service) create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderHandle, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if len(input.Items) > MaxItemsPerOrder {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many items in order")
	}
	if field := input.ShippingAddress.Validate(); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address missing "+field)
	}
	if !input.ClientTotal.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	variantIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.ProductID == uuid.Nil || item.VariantID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product and variant required")
		}
		if seen[item.VariantID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate variant in order")
		}
		seen[item.VariantID] = true
		variantIDs = append(variantIDs, item.VariantID)
	}

	variants, err := s.catalog.FindPurchasableVariants(ctx, variantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve catalog prices")
	}

	lineItems := make([]models.OrderLineItem, 0, len(input.Items))
	var subtotal int64
	for _, item := range input.Items {
		variant, ok := variants[item.VariantID]
		if !ok || variant.ProductID != item.ProductID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item variant not found")
		}
		if !variant.IsActive || variant.ProductStatus != enums.ProductStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item variant is not available")
		}

		lineTotal := variant.PricePaise * int64(item.Quantity)
		subtotal += lineTotal
		variantID := variant.VariantID
		variantName := variant.VariantName
		lineItems = append(lineItems, models.OrderLineItem{
			ID:             uuid.New(),
			ProductID:      variant.ProductID,
			VariantID:      &variantID,
			Name:           variant.ProductTitle,
			VariantName:    &variantName,
			SKU:            variant.SKU,
			UnitPricePaise: variant.PricePaise,
			Qty:            item.Quantity,
			TotalPaise:     lineTotal,
		})
	}

	// The server-side recomputation is authoritative; the client total is
	// only accepted as a cross-check.
	clientPaise, err := money.RupeesToPaise(input.ClientTotal)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total has sub-paise precision")
	}
	if clientPaise != subtotal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total does not match catalog prices")
	}

	orderNumber, err := newOrderNumber(time.Now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	// Gateway registration happens before any local write so an order row
	// never exists without a charge intent behind it.
	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderCreateParams{
		AmountPaise: subtotal,
		Currency:    s.gateway.Currency(),
		Receipt:     orderNumber,
		Notes: map[string]string{
			"order_number": orderNumber,
			"user_id":      userID.String(),
		},
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		OrderNumber:     orderNumber,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		Currency:        enums.Currency(gatewayOrder.Currency),
		SubtotalPaise:   subtotal,
		TotalPaise:      subtotal,
		ShippingAddress: input.ShippingAddress,
		Notes:           input.Notes,
		GatewayOrderID:  &gatewayOrder.ID,
	}
	for i := range lineItems {
		lineItems[i].OrderID = order.ID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := txRepo.CreateLineItems(ctx, lineItems); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         userID,
				TotalPaise:     order.TotalPaise,
				Currency:       order.Currency.String(),
				GatewayOrderID: gatewayOrder.ID,
				ItemCount:      len(lineItems),
			},
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "orders_order_number_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order number already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order created")

	return &OrderHandle{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		GatewayOrderID: gatewayOrder.ID,
		GatewayKeyID:   s.gateway.KeyID(),
		AmountPaise:    order.TotalPaise,
		Currency:       order.Currency.String(),
	}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, userID uuid.UUID, input ConfirmPaymentInput) (*ConfirmationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(input.GatewayOrderID) == "" ||
		strings.TrimSpace(input.GatewayPaymentID) == "" ||
		strings.TrimSpace(input.Signature) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id, and signature required")
	}

	// Signature check runs before any database work; a forged callback
	// must not touch the order row.
	if !razorpay.VerifyPaymentSignature(s.gateway.SigningSecret(), input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.metrics.IncVerificationFailure()
		logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
		s.logg.Warn(logCtx, "payment signature mismatch")
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment verification failed")
	}

	paidAt := time.Now().UTC()
	var confirmed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		applied, err := txRepo.MarkPaid(ctx, input.OrderID, userID, input.GatewayPaymentID, input.Signature, paidAt)
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		order, err := txRepo.FindForUser(ctx, input.OrderID, userID)
		if err != nil {
			return err
		}
		confirmed = order

		for _, item := range order.Items {
			if item.VariantID == nil {
				continue
			}
			decremented, err := s.inventory.DecrementTx(ctx, tx, *item.VariantID, item.Qty, s.allowBackorder)
			if err != nil {
				return err
			}
			if !decremented {
				// Payment already cleared; an oversold line is an
				// operational followup, not a reason to fail the customer.
				s.metrics.IncShortDecrement()
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"order_id":   order.ID.String(),
					"variant_id": item.VariantID.String(),
					"qty":        item.Qty,
				})
				s.logg.Warn(logCtx, "inventory short on paid order")
			}
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				UserID:           userID,
				TotalPaise:       order.TotalPaise,
				Currency:         order.Currency.String(),
				GatewayOrderID:   input.GatewayOrderID,
				GatewayPaymentID: input.GatewayPaymentID,
				PaidAt:           paidAt,
			},
		})
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
	}

	s.metrics.IncPaymentConfirmed()
	logCtx := s.logg.WithOrderID(ctx, confirmed.ID.String())
	s.logg.Info(logCtx, "payment confirmed")

	return &ConfirmationResult{
		OrderID:       confirmed.ID,
		OrderNumber:   confirmed.OrderNumber,
		Status:        enums.OrderStatusProcessing,
		PaymentStatus: enums.PaymentStatusPaid,
		PaidAt:        paidAt,
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, listError(err)
	}
	return toOrderList(page), nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toOrderDTO(order), nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	page, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, listError(err)
	}
	return toOrderList(page), nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toOrderDTO(order), nil
}

// shippingTransitions holds the allowed fulfillment moves. Payment state
// is never touched here.
var shippingTransitions = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusShipped:   enums.OrderStatusProcessing,
	enums.OrderStatusDelivered: enums.OrderStatusShipped,
}

func (s *service) UpdateShipping(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	required, ok := shippingTransitions[target]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "unsupported shipping transition")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != required {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	applied, err := s.repo.UpdateShippingStatus(ctx, orderID, required, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping status")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	order.Status = target
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"status":   target.String(),
	})
	s.logg.Info(logCtx, "shipping status updated")
	return toOrderDTO(order), nil
}

func listError(err error) error {
	if strings.Contains(err.Error(), "cursor") {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}

func toOrderList(page *OrderPage) *OrderList {
	summaries := make([]OrderSummary, 0, len(page.Orders))
	for _, order := range page.Orders {
		itemCount := 0
		for _, item := range order.Items {
			itemCount += item.Qty
		}
		summaries = append(summaries, OrderSummary{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Currency:      order.Currency,
			Total:         money.PaiseToRupees(order.TotalPaise),
			ItemCount:     itemCount,
			CreatedAt:     order.CreatedAt,
		})
	}
	return &OrderList{Orders: summaries, NextCursor: page.NextCursor}
}

func toOrderDTO(order *models.Order) *OrderDTO {
	items := make([]LineItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, LineItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Name:        item.Name,
			VariantName: item.VariantName,
			SKU:         item.SKU,
			UnitPrice:   money.PaiseToRupees(item.UnitPricePaise),
			Quantity:    item.Qty,
			Total:       money.PaiseToRupees(item.TotalPaise),
		})
	}
	return &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		Currency:        order.Currency,
		Subtotal:        money.PaiseToRupees(order.SubtotalPaise),
		Total:           money.PaiseToRupees(order.TotalPaise),
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		GatewayOrderID:  order.GatewayOrderID,
		PaidAt:          order.PaidAt,
		CreatedAt:       order.CreatedAt,
		Items:           items,
	}
}
