package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"github.com/retailgrid/backoffice/pkg/redis"
)

// SalesReport aggregates order headers. Reads only; never mutates the ledger.
type SalesReport struct {
	TotalOrders     int64           `json:"total_orders"`
	CreatedOrders   int64           `json:"created_orders"`
	InvoicedOrders  int64           `json:"invoiced_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	InvoicedRevenue decimal.Decimal `json:"invoiced_revenue"`
	OpenValue       decimal.Decimal `json:"open_value"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// InventoryReport aggregates the stock ledger.
type InventoryReport struct {
	Products    int64     `json:"products"`
	TotalUnits  int64     `json:"total_units"`
	OutOfStock  int64     `json:"out_of_stock"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service serves the KPI reads behind a short-lived cache.
type Service interface {
	Sales(ctx context.Context) (*SalesReport, error)
	Inventory(ctx context.Context) (*InventoryReport, error)
}

type service struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration
}

// NewService builds the report service. The cache may be nil; reads then go
// straight to the database.
func NewService(db *gorm.DB, cache *redis.Client, ttl time.Duration) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &service{db: db, cache: cache, ttl: ttl}, nil
}

func (s *service) Sales(ctx context.Context) (*SalesReport, error) {
	if cached, ok := fromCache[SalesReport](ctx, s.cache, "sales"); ok {
		return cached, nil
	}

	report := &SalesReport{GeneratedAt: time.Now().UTC()}
	type statusRow struct {
		Status enums.OrderStatus
		Count  int64
		Total  decimal.Decimal
	}
	var rows []statusRow
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate orders")
	}

	for _, row := range rows {
		report.TotalOrders += row.Count
		switch row.Status {
		case enums.OrderStatusCreated:
			report.CreatedOrders = row.Count
			report.OpenValue = row.Total
		case enums.OrderStatusInvoiced:
			report.InvoicedOrders = row.Count
			report.InvoicedRevenue = row.Total
		case enums.OrderStatusCancelled:
			report.CancelledOrders = row.Count
		}
	}

	s.toCache(ctx, "sales", report)
	return report, nil
}

func (s *service) Inventory(ctx context.Context) (*InventoryReport, error) {
	if cached, ok := fromCache[InventoryReport](ctx, s.cache, "inventory"); ok {
		return cached, nil
	}

	report := &InventoryReport{GeneratedAt: time.Now().UTC()}
	type sums struct {
		Products   int64
		TotalUnits int64
		OutOfStock int64
	}
	var agg sums
	err := s.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Select("COUNT(*) AS products, COALESCE(SUM(quantity), 0) AS total_units, COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock").
		Scan(&agg).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate inventory")
	}
	report.Products = agg.Products
	report.TotalUnits = agg.TotalUnits
	report.OutOfStock = agg.OutOfStock

	s.toCache(ctx, "inventory", report)
	return report, nil
}

func fromCache[T any](ctx context.Context, cache *redis.Client, name string) (*T, bool) {
	if cache == nil {
		return nil, false
	}
	raw, err := cache.Get(ctx, cache.CacheKey("reports", name))
	if err != nil {
		return nil, false
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false
	}
	return &value, true
}

func (s *service) toCache(ctx context.Context, name string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Cache write failures are invisible; the next read recomputes.
	_ = s.cache.Set(ctx, s.cache.CacheKey("reports", name), string(raw), s.ttl)
}
