package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The barcode is the natural key used by bulk
// uploads; MRP caps the selling price of any line item referencing it.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ClientID  uuid.UUID       `gorm:"column:client_id;type:uuid;not null"`
	Barcode   string          `gorm:"column:barcode;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;not null"`
	MRP       decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null"`
	Inventory *InventoryItem  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
