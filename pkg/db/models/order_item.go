package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one product entry within an order. Unique per (order, product);
// mutable only while the owning order is CREATED.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_items_order_product"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_order_items_order_product"`
	Quantity     int             `gorm:"column:quantity;not null"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	Version      int             `gorm:"column:version;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Value is the monetary contribution of this line item to the order total.
func (i OrderItem) Value() decimal.Decimal {
	return i.SellingPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
