package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	"github.com/retailgrid/backoffice/pkg/redis"
)

type fakeStore struct {
	data map[string]string
	sets int
	gets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.sets++
	f.data[key] = fmt.Sprint(value)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *goredis.StringCmd {
	f.gets++
	if value, ok := f.data[key]; ok {
		return goredis.NewStringResult(value, nil)
	}
	return goredis.NewStringResult("", goredis.Nil)
}

func (f *fakeStore) Incr(_ context.Context, key string) *goredis.IntCmd {
	return goredis.NewIntResult(0, nil)
}

func (f *fakeStore) Expire(_ context.Context, _ string, _ time.Duration) *goredis.BoolCmd {
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reports_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.InventoryItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, total string) {
	t.Helper()
	amount, err := decimal.NewFromString(total)
	if err != nil {
		t.Fatalf("parse total: %v", err)
	}
	order := &models.Order{
		ID:            uuid.New(),
		Status:        status,
		CustomerName:  "x",
		CustomerPhone: "9",
		TotalAmount:   amount,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestSalesAggregatesByStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedOrder(t, db, enums.OrderStatusCreated, "100.00")
	seedOrder(t, db, enums.OrderStatusCreated, "50.00")
	seedOrder(t, db, enums.OrderStatusInvoiced, "200.00")
	seedOrder(t, db, enums.OrderStatusCancelled, "75.00")

	svc, err := NewService(db, nil, time.Minute)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	report, err := svc.Sales(context.Background())
	if err != nil {
		t.Fatalf("sales failed: %v", err)
	}
	if report.TotalOrders != 4 || report.CreatedOrders != 2 || report.InvoicedOrders != 1 || report.CancelledOrders != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if !report.OpenValue.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("open value = %s, want 150.00", report.OpenValue)
	}
	if !report.InvoicedRevenue.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("revenue = %s, want 200.00", report.InvoicedRevenue)
	}
}

func TestInventoryAggregates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	for _, qty := range []int{0, 5, 12} {
		if err := db.Create(&models.InventoryItem{ProductID: uuid.New(), Quantity: qty}).Error; err != nil {
			t.Fatalf("seed inventory: %v", err)
		}
	}

	svc, err := NewService(db, nil, time.Minute)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	report, err := svc.Inventory(context.Background())
	if err != nil {
		t.Fatalf("inventory failed: %v", err)
	}
	if report.Products != 3 || report.TotalUnits != 17 || report.OutOfStock != 1 {
		t.Fatalf("unexpected aggregates: %+v", report)
	}
}

func TestSalesServedFromCacheOnSecondRead(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedOrder(t, db, enums.OrderStatusInvoiced, "200.00")

	store := newFakeStore()
	svc, err := NewService(db, redis.NewFromCmdable(store), time.Minute)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	ctx := context.Background()

	first, err := svc.Sales(ctx)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	if store.sets != 1 {
		t.Fatalf("cache writes = %d, want 1", store.sets)
	}

	// The database changes but the cached report is still served.
	seedOrder(t, db, enums.OrderStatusInvoiced, "999.00")
	second, err := svc.Sales(ctx)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if second.TotalOrders != first.TotalOrders {
		t.Fatalf("expected the cached report, got %+v", second)
	}
	if store.sets != 1 {
		t.Fatalf("cache must not be rewritten on hit, writes = %d", store.sets)
	}
}
