package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is the per-product stock ledger row. Created once with the
// product (quantity 0) and only mutated afterwards; quantity never goes
// negative.
type InventoryItem struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	Version   int       `gorm:"column:version;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
