package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailgrid/backoffice/api/responses"
	"github.com/retailgrid/backoffice/internal/orders"
	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"github.com/retailgrid/backoffice/pkg/logger"
)

type stubOrderService struct {
	insertFn  func(ctx context.Context, input orders.InsertInput) (*models.Order, error)
	invoiceFn func(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

func (s *stubOrderService) Insert(ctx context.Context, input orders.InsertInput) (*models.Order, error) {
	return s.insertFn(ctx, input)
}

func (s *stubOrderService) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}

func (s *stubOrderService) List(context.Context, orders.ListQuery) (*orders.ListResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}

func (s *stubOrderService) UpdateFields(context.Context, orders.UpdateFieldsInput) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}

func (s *stubOrderService) MarkInvoiced(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.invoiceFn(ctx, id)
}

func (s *stubOrderService) Cancel(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}

func (s *stubOrderService) Delete(context.Context, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not wired")
}

func controllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	body := `{"customer_name":"Asha","customer_phone":"9000000001","items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	called := false
	svc := &stubOrderService{insertFn: func(context.Context, orders.InsertInput) (*models.Order, error) {
		called = true
		return nil, nil
	}}
	CreateOrder(svc, controllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if called {
		t.Fatalf("service must not be called on invalid payload")
	}
}

func TestCreateOrderPassesItemsThrough(t *testing.T) {
	productID := uuid.New()
	body := `{"customer_name":"Asha","customer_phone":"9000000001","items":[{"product_id":"` +
		productID.String() + `","quantity":3,"selling_price":"40.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var got orders.InsertInput
	svc := &stubOrderService{insertFn: func(_ context.Context, input orders.InsertInput) (*models.Order, error) {
		got = input
		return &models.Order{
			ID:          uuid.New(),
			Status:      enums.OrderStatusCreated,
			TotalAmount: decimal.RequireFromString("120.00"),
		}, nil
	}}
	CreateOrder(svc, controllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(got.Items) != 1 || got.Items[0].ProductID != productID || got.Items[0].Quantity != 3 {
		t.Fatalf("unexpected input passed to service: %+v", got)
	}
	if !got.Items[0].SellingPrice.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("unexpected selling price %s", got.Items[0].SellingPrice)
	}
}

func TestGetOrderRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = withURLParam(req, "orderID", "not-a-uuid")
	rec := httptest.NewRecorder()

	GetOrder(&stubOrderService{}, controllerLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestInvoiceOrderMapsBusinessRule(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/invoice", nil)
	req = withURLParam(req, "orderID", orderID.String())
	rec := httptest.NewRecorder()

	svc := &stubOrderService{invoiceFn: func(_ context.Context, id uuid.UUID) (*models.Order, error) {
		return nil, pkgerrors.Newf(pkgerrors.CodeBusinessRule, "cannot invoice order %s: status is CANCELLED", id)
	}}
	InvoiceOrder(svc, controllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var envelope responses.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(envelope.Error.Message, "cannot invoice order") {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=SHIPPED", nil)
	rec := httptest.NewRecorder()

	ListOrders(&stubOrderService{}, controllerLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}
