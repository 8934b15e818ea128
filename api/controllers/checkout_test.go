package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wovenlane/wovenlane-backend/api/middleware"
	"github.com/wovenlane/wovenlane-backend/internal/orders"
	"github.com/wovenlane/wovenlane-backend/pkg/enums"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/pagination"
	"github.com/wovenlane/wovenlane-backend/pkg/types"
)

type stubOrderService struct {
	handle     *orders.OrderHandle
	confirmed  *orders.ConfirmationResult
	err        error
	lastUserID uuid.UUID
	lastInput  orders.CreateOrderInput
}

func (s *stubOrderService) Create(_ context.Context, userID uuid.UUID, input orders.CreateOrderInput) (*orders.OrderHandle, error) {
	s.lastUserID = userID
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.handle, nil
}

func (s *stubOrderService) ConfirmPayment(_ context.Context, userID uuid.UUID, _ orders.ConfirmPaymentInput) (*orders.ConfirmationResult, error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.confirmed, nil
}

func (s *stubOrderService) ListForUser(context.Context, uuid.UUID, pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (s *stubOrderService) GetForUser(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrderService) AdminList(context.Context, pagination.Params, orders.AdminOrderFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (s *stubOrderService) AdminGet(context.Context, uuid.UUID) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrderService) UpdateShipping(context.Context, uuid.UUID, enums.OrderStatus) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestCheckoutReturnsGatewayHandle(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{handle: &orders.OrderHandle{
		OrderID:        uuid.New(),
		OrderNumber:    "ORD-1756600000000-ABCDEF123",
		GatewayOrderID: "order_stub_1",
		GatewayKeyID:   "rzp_test_wovenlane",
		AmountPaise:    100000,
		Currency:       "INR",
	}}

	body := `{"items":[{"product_id":"` + uuid.NewString() + `","variant_id":"` + uuid.NewString() + `","quantity":2}],` +
		`"shipping_address":{"full_name":"Asha Rao","line1":"12 MG Road","city":"Bengaluru","state":"KA","postal_code":"560001","country":"IN","phone":"+919800000000"},` +
		`"total":"1000.00"}`

	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body, userID))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastUserID != userID {
		t.Fatalf("service called with wrong user %s", svc.lastUserID)
	}
	if len(svc.lastInput.Items) != 1 || svc.lastInput.Items[0].Quantity != 2 {
		t.Fatalf("payload not passed through: %+v", svc.lastInput)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["gateway_order_id"] != "order_stub_1" {
		t.Fatalf("unexpected handle payload %v", data)
	}
}

func TestCheckoutRequiresAuthContext(t *testing.T) {
	svc := &stubOrderService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutRejectsMalformedBody(t *testing.T) {
	svc := &stubOrderService{}
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/checkout", `{"items":`, uuid.New()))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutPassesServiceErrorsThrough(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeValidation, "order total does not match catalog prices")}
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/checkout", `{"items":[],"shipping_address":{},"total":"1.00"}`, uuid.New()))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "order total does not match catalog prices" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestPaymentConfirmReturnsSettledOrder(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{confirmed: &orders.ConfirmationResult{
		OrderID:       orderID,
		OrderNumber:   "ORD-1756600000000-ABCDEF123",
		Status:        enums.OrderStatusProcessing,
		PaymentStatus: enums.PaymentStatusPaid,
		PaidAt:        time.Now().UTC(),
	}}

	body := `{"order_id":"` + orderID.String() + `","gateway_order_id":"order_stub_1","gateway_payment_id":"pay_1","signature":"deadbeef"}`
	resp := httptest.NewRecorder()
	PaymentConfirm(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/payments/confirm", body, userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["payment_status"] != string(enums.PaymentStatusPaid) {
		t.Fatalf("unexpected payload %v", data)
	}
}

func TestPaymentConfirmSurfacesVerificationFailure(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodePaymentVerification, "payment verification failed")}
	body := `{"order_id":"` + uuid.NewString() + `","gateway_order_id":"o","gateway_payment_id":"p","signature":"bad"}`
	resp := httptest.NewRecorder()
	PaymentConfirm(svc, nil)(resp, authedRequest(http.MethodPost, "/api/v1/payments/confirm", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodePaymentVerification) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}
