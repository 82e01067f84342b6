package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailgrid/backoffice/pkg/db/models"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is the single chokepoint for stock-quantity mutation. Every write to
// inventory_items.quantity goes through Adjust or BulkSet so the non-negative
// invariant is enforced in one place.
type Ledger interface {
	Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, oldQty, newQty int) error
	BulkSet(ctx context.Context, tx *gorm.DB, rows []QuantityRow) error
	Get(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
}

// QuantityRow is one absolute quantity overwrite within BulkSet.
type QuantityRow struct {
	ProductID uuid.UUID
	Quantity  int
}

type ledger struct {
	db *gorm.DB
}

// NewLedger returns a stock ledger bound to the provided database.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

// Adjust applies delta = oldQty - newQty to the product's quantity in one
// conditional update. Adjust(p, 0, q) deducts q; Adjust(p, q, 0) restocks q.
// The row is left untouched when the result would go negative.
func (l *ledger) Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, oldQty, newQty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjust")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if oldQty < 0 || newQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantities must be non-negative")
	}

	delta := oldQty - newQty
	if delta == 0 {
		return nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET quantity = quantity + ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND quantity + ? >= 0
	`, delta, productID, delta)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var item models.InventoryItem
	err := tx.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "no inventory for product %s", productID)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return pkgerrors.Newf(pkgerrors.CodeBusinessRule,
		"insufficient stock for product %s: available %d, requested %d more", productID, item.Quantity, -delta)
}

// BulkSet loads the inventory rows for the given products in one read,
// overwrites quantities in memory for products that exist, silently skips
// unknown products, and writes everything back in a single batched upsert.
// Catalog integrity is the caller's concern.
func (l *ledger) BulkSet(ctx context.Context, tx *gorm.DB, rows []QuantityRow) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for bulk stock set")
	}
	if len(rows) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	wanted := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		if row.Quantity < 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "negative quantity for product %s", row.ProductID)
		}
		ids = append(ids, row.ProductID)
		wanted[row.ProductID] = row.Quantity
	}

	var existing []models.InventoryItem
	if err := tx.WithContext(ctx).Where("product_id IN ?", ids).Find(&existing).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory batch")
	}
	if len(existing) == 0 {
		return nil
	}

	for i := range existing {
		existing[i].Quantity = wanted[existing[i].ProductID]
		existing[i].Version++
	}

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "version", "updated_at"}),
		}).
		Create(&existing).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write inventory batch")
	}
	return nil
}

// Get returns the inventory row for one product.
func (l *ledger) Get(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := l.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "no inventory for product %s", productID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return &item, nil
}

// List returns every inventory row, ordered for stable report output.
func (l *ledger) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := l.db.WithContext(ctx).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return items, nil
}
