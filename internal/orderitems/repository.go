package orderitems

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/pkg/db/models"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
)

// Repository persists order line items. The (order, product) pair is the
// natural key; the database enforces its uniqueness.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.OrderItem) error
	FindByID(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	FindByProduct(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderItem, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order item repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.OrderItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order item")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		First(&item, "id = ? AND order_id = ?", itemID, orderID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "item %s not found on order %s", itemID, orderID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	return &item, nil
}

// FindByProduct returns nil, nil when the order has no line for the product.
func (r *repository) FindByProduct(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		First(&item, "order_id = ? AND product_id = ?", orderID, productID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item by product")
	}
	return &item, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	return rows, nil
}

// UpdateCAS applies updates only when the stored version matches
// expectedVersion, bumping the version in the same statement.
func (r *repository) UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) error {
	assign := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		assign[k] = v
	}
	assign["version"] = gorm.Expr("version + 1")
	assign["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(assign)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order item")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var item models.OrderItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "order item %s not found", id)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "order item %s was modified concurrently", id)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.OrderItem{}, "id = ?", id)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete order item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "order item %s not found", id)
	}
	return nil
}
