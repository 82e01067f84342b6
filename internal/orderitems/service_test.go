package orderitems

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/internal/orders"
	"github.com/retailgrid/backoffice/internal/products"
	"github.com/retailgrid/backoffice/internal/stock"
	dbclient "github.com/retailgrid/backoffice/pkg/db"
	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
)

type env struct {
	db      *gorm.DB
	svc     Service
	product *models.Product
	order   *models.Order
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := "file:orderitems_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Client{}, &models.Product{}, &models.InventoryItem{},
		&models.Order{}, &models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(NewRepository(db), orders.NewRepository(db), products.NewRepository(db), stock.NewLedger(db), dbclient.NewFromConn(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	e := &env{db: db, svc: svc}
	e.product = e.seedProduct(t, "8901000000017", "100.00", 50)
	e.order = e.seedOrder(t, enums.OrderStatusCreated)
	return e
}

func (e *env) seedProduct(t *testing.T, barcode, mrp string, qty int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Barcode:  barcode,
		Name:     "test product " + barcode,
		MRP:      mustDecimal(t, mrp),
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	item := &models.InventoryItem{ProductID: product.ID, Quantity: qty}
	if err := e.db.Create(item).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product
}

func (e *env) seedOrder(t *testing.T, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		Status:        status,
		CustomerName:  "Asha Rao",
		CustomerPhone: "9000000001",
		TotalAmount:   decimal.Zero,
	}
	if err := e.db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func (e *env) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := e.db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return item.Quantity
}

func (e *env) totalOf(t *testing.T, orderID uuid.UUID) decimal.Decimal {
	t.Helper()
	var order models.Order
	if err := e.db.First(&order, "id = ?", orderID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	return order.TotalAmount
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func TestAddDeductsStockAndGrowsTotal(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, AddInput{
		OrderID:      e.order.ID,
		ProductID:    e.product.ID,
		Quantity:     4,
		SellingPrice: mustDecimal(t, "90.00"),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if item.Quantity != 4 {
		t.Fatalf("unexpected quantity %d", item.Quantity)
	}
	if got := e.stockOf(t, e.product.ID); got != 46 {
		t.Fatalf("stock = %d, want 46", got)
	}
	if got := e.totalOf(t, e.order.ID); !got.Equal(mustDecimal(t, "360.00")) {
		t.Fatalf("total = %s, want 360.00", got)
	}
}

func TestAddRejectsPriceAboveMRP(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	_, err := e.svc.Add(context.Background(), AddInput{
		OrderID:      e.order.ID,
		ProductID:    e.product.ID,
		Quantity:     1,
		SellingPrice: mustDecimal(t, "100.01"),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
		t.Fatalf("expected business rule violation, got %v", err)
	}
	if got := e.stockOf(t, e.product.ID); got != 50 {
		t.Fatalf("stock must stay 50, got %d", got)
	}
}

func TestAddRejectsSecondLineForSameProduct(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	price := mustDecimal(t, "80.00")
	if _, err := e.svc.Add(ctx, AddInput{OrderID: e.order.ID, ProductID: e.product.ID, Quantity: 2, SellingPrice: price}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	_, err := e.svc.Add(ctx, AddInput{OrderID: e.order.ID, ProductID: e.product.ID, Quantity: 1, SellingPrice: price})
	if !pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
		t.Fatalf("expected business rule violation, got %v", err)
	}
	if got := e.stockOf(t, e.product.ID); got != 48 {
		t.Fatalf("stock = %d, want 48", got)
	}
}

func TestAddInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	scarce := e.seedProduct(t, "8901000000024", "50.00", 3)

	_, err := e.svc.Add(context.Background(), AddInput{
		OrderID:      e.order.ID,
		ProductID:    scarce.ID,
		Quantity:     5,
		SellingPrice: mustDecimal(t, "40.00"),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
		t.Fatalf("expected business rule violation, got %v", err)
	}
	if got := e.stockOf(t, scarce.ID); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
	if got := e.totalOf(t, e.order.ID); !got.IsZero() {
		t.Fatalf("total must stay zero, got %s", got)
	}
	var count int64
	e.db.Model(&models.OrderItem{}).Where("order_id = ?", e.order.ID).Count(&count)
	if count != 0 {
		t.Fatalf("no item row expected, got %d", count)
	}
}

func TestAddRejectsTerminalOrder(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	invoiced := e.seedOrder(t, enums.OrderStatusInvoiced)

	_, err := e.svc.Add(context.Background(), AddInput{
		OrderID:      invoiced.ID,
		ProductID:    e.product.ID,
		Quantity:     1,
		SellingPrice: mustDecimal(t, "10.00"),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
		t.Fatalf("expected business rule violation, got %v", err)
	}
}

func TestUpdateMovesStockAndTotalByTheDifference(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, AddInput{
		OrderID:      e.order.ID,
		ProductID:    e.product.ID,
		Quantity:     10,
		SellingPrice: mustDecimal(t, "90.00"),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := e.stockOf(t, e.product.ID); got != 40 {
		t.Fatalf("stock after add = %d, want 40", got)
	}

	updated, err := e.svc.Update(ctx, UpdateInput{
		OrderID:      e.order.ID,
		ItemID:       item.ID,
		Quantity:     20,
		SellingPrice: mustDecimal(t, "80.00"),
		Version:      item.Version,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Quantity != 20 || !updated.SellingPrice.Equal(mustDecimal(t, "80.00")) {
		t.Fatalf("unexpected line after update: %+v", updated)
	}
	if updated.Version != item.Version+1 {
		t.Fatalf("version = %d, want %d", updated.Version, item.Version+1)
	}
	// Ten more units leave stock; the total moves from 900 to 1600.
	if got := e.stockOf(t, e.product.ID); got != 30 {
		t.Fatalf("stock after update = %d, want 30", got)
	}
	if got := e.totalOf(t, e.order.ID); !got.Equal(mustDecimal(t, "1600.00")) {
		t.Fatalf("total = %s, want 1600.00", got)
	}
}

func TestUpdateStaleVersionRollsBackEverything(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, AddInput{
		OrderID:      e.order.ID,
		ProductID:    e.product.ID,
		Quantity:     5,
		SellingPrice: mustDecimal(t, "60.00"),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err = e.svc.Update(ctx, UpdateInput{
		OrderID:      e.order.ID,
		ItemID:       item.ID,
		Quantity:     8,
		SellingPrice: mustDecimal(t, "60.00"),
		Version:      item.Version + 5,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := e.stockOf(t, e.product.ID); got != 45 {
		t.Fatalf("stock = %d, want 45", got)
	}
	if got := e.totalOf(t, e.order.ID); !got.Equal(mustDecimal(t, "300.00")) {
		t.Fatalf("total = %s, want 300.00", got)
	}
}

func TestUpdateRejectsPriceAboveMRP(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, AddInput{
		OrderID:      e.order.ID,
		ProductID:    e.product.ID,
		Quantity:     2,
		SellingPrice: mustDecimal(t, "95.00"),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	_, err = e.svc.Update(ctx, UpdateInput{
		OrderID:      e.order.ID,
		ItemID:       item.ID,
		Quantity:     2,
		SellingPrice: mustDecimal(t, "120.00"),
		Version:      item.Version,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
		t.Fatalf("expected business rule violation, got %v", err)
	}
}

func TestDeleteRestocksAndShrinksTotal(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	item, err := e.svc.Add(ctx, AddInput{
		OrderID:      e.order.ID,
		ProductID:    e.product.ID,
		Quantity:     6,
		SellingPrice: mustDecimal(t, "50.00"),
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := e.svc.Delete(ctx, e.order.ID, item.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := e.stockOf(t, e.product.ID); got != 50 {
		t.Fatalf("stock = %d, want 50", got)
	}
	if got := e.totalOf(t, e.order.ID); !got.IsZero() {
		t.Fatalf("total = %s, want 0", got)
	}
	if _, err := NewRepository(e.db).FindByID(ctx, e.order.ID, item.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeleteUnknownItem(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	err := e.svc.Delete(context.Background(), e.order.ID, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
