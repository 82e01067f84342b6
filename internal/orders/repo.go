package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"github.com/retailgrid/backoffice/pkg/pagination"
)

// Repository persists order headers. Status and total writes are guarded
// either by a version match or by a conditional update so concurrent writers
// cannot silently clobber each other.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Tx-scoped helpers shared with the line-item ledger.
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	ApplyAmountDelta(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.find(ctx, r.db, id, false)
}

// FindDetail loads the order with its line items.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.find(ctx, r.db, id, true)
}

func (r *repository) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		tx = r.db
	}
	return r.find(ctx, tx, id, false)
}

func (r *repository) find(ctx context.Context, db *gorm.DB, id uuid.UUID, withItems bool) (*models.Order, error) {
	query := db.WithContext(ctx)
	if withItems {
		query = query.Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	}
	var order models.Order
	err := query.First(&order, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	cursor, err := pagination.Decode(query.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "bad cursor")
	}
	if cursor != nil {
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	fetch := query.Pagination.FetchSize()
	var rows []models.Order
	err = q.Order("created_at DESC, id DESC").Limit(fetch).Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	result := &ListResult{Orders: rows}
	if len(rows) == fetch {
		last := rows[fetch-2]
		result.Orders = rows[:fetch-1]
		result.NextCursor = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return result, nil
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
		Model(&models.Order{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(assign)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := r.find(ctx, r.db, id, false); err != nil {
		return err
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "order %s was modified concurrently", id)
}

// ApplyAmountDelta adds delta to the order total in one conditional update.
// The order must still be mutable and the resulting total non-negative.
func (r *repository) ApplyAmountDelta(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for amount delta")
	}
	if delta.IsZero() {
		return nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE orders
		SET total_amount = total_amount + ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND status = ?
		  AND total_amount + ? >= 0
	`, delta, id, enums.OrderStatusCreated, delta)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "adjust order total")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	order, err := r.find(ctx, tx, id, false)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusCreated {
		return pkgerrors.Newf(pkgerrors.CodeBusinessRule,
			"order %s is %s and can no longer change", id, order.Status)
	}
	return pkgerrors.Newf(pkgerrors.CodeBusinessRule,
		"order %s total cannot go below zero", id)
}

// Delete removes the order and its lines. Callers run it inside a
// transaction so the two deletes land together.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.OrderItem{}, "order_id = ?", id).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order items")
	}
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete order")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
	}
	return nil
}
