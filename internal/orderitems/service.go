package orderitems

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/internal/orders"
	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderHeaders interface {
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	ApplyAmountDelta(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockLedger interface {
	Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, oldQty, newQty int) error
}

// Service mutates order lines. Every mutation moves stock and the order total
// in the same transaction so the two ledgers never drift apart.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.OrderItem, error)
	Update(ctx context.Context, input UpdateInput) (*models.OrderItem, error)
	Delete(ctx context.Context, orderID, itemID uuid.UUID) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)

	// Attach inserts a line for an already-loaded mutable order without
	// touching the order total. The order insert path precomputes its total
	// and calls this per line; Add owns the delta itself.
	Attach(ctx context.Context, tx *gorm.DB, order *models.Order, spec orders.ItemSpec) (*models.OrderItem, error)
	ListByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]models.OrderItem, error)
}

// AddInput adds one product line to an existing order.
type AddInput struct {
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	Quantity     int
	SellingPrice decimal.Decimal
}

// UpdateInput rewrites the quantity and price of an existing line. Version is
// the version the caller last read; a stale value is rejected.
type UpdateInput struct {
	OrderID      uuid.UUID
	ItemID       uuid.UUID
	Quantity     int
	SellingPrice decimal.Decimal
	Version      int
}

type service struct {
	repo     Repository
	orders   orderHeaders
	products productLookup
	stock    stockLedger
	tx       txRunner
}

// NewService builds the line-item service with the required collaborators.
func NewService(repo Repository, headers orderHeaders, products productLookup, stock stockLedger, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order item repository required")
	}
	if headers == nil {
		return nil, fmt.Errorf("order header store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		orders:   headers,
		products: products,
		stock:    stock,
		tx:       tx,
	}, nil
}

// Add appends a product line to a CREATED order, deducting stock and growing
// the order total by quantity times selling price.
func (s *service) Add(ctx context.Context, input AddInput) (*models.OrderItem, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	spec := orders.ItemSpec{
		ProductID:    input.ProductID,
		Quantity:     input.Quantity,
		SellingPrice: input.SellingPrice,
	}
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	var item *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.FindByIDTx(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if err := requireMutable(order); err != nil {
			return err
		}

		item, err = s.Attach(ctx, tx, order, spec)
		if err != nil {
			return err
		}
		return s.orders.ApplyAmountDelta(ctx, tx, order.ID, item.Value())
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update rewrites a line's quantity and price. Stock moves by the quantity
// difference and the order total by the difference of the line values.
func (s *service) Update(ctx context.Context, input UpdateInput) (*models.OrderItem, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.SellingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price must be non-negative")
	}

	var updated *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.FindByIDTx(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if err := requireMutable(order); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, input.OrderID, input.ItemID)
		if err != nil {
			return err
		}

		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if input.SellingPrice.GreaterThan(product.MRP) {
			return pkgerrors.Newf(pkgerrors.CodeBusinessRule,
				"selling price %s exceeds mrp %s for product %s",
				input.SellingPrice, product.MRP, product.ID)
		}

		if err := s.stock.Adjust(ctx, tx, item.ProductID, item.Quantity, input.Quantity); err != nil {
			return err
		}

		newValue := input.SellingPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
		delta := newValue.Sub(item.Value())
		if err := s.orders.ApplyAmountDelta(ctx, tx, order.ID, delta); err != nil {
			return err
		}

		err = repo.UpdateCAS(ctx, item.ID, input.Version, map[string]any{
			"quantity":      input.Quantity,
			"selling_price": input.SellingPrice,
		})
		if err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, input.OrderID, input.ItemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a line, restocking its quantity and shrinking the order
// total by its value.
func (s *service) Delete(ctx context.Context, orderID, itemID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.FindByIDTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := requireMutable(order); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, orderID, itemID)
		if err != nil {
			return err
		}

		if err := s.stock.Adjust(ctx, tx, item.ProductID, item.Quantity, 0); err != nil {
			return err
		}
		if err := s.orders.ApplyAmountDelta(ctx, tx, order.ID, item.Value().Neg()); err != nil {
			return err
		}
		return repo.Delete(ctx, item.ID)
	})
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.ListByOrder(ctx, orderID)
}

func (s *service) ListByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]models.OrderItem, error) {
	return s.repo.WithTx(tx).ListByOrder(ctx, orderID)
}

// Attach validates the product, enforces the price ceiling and the one-line-
// per-product rule, deducts stock, and inserts the line.
func (s *service) Attach(ctx context.Context, tx *gorm.DB, order *models.Order, spec orders.ItemSpec) (*models.OrderItem, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required to attach item")
	}
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, spec.ProductID)
	if err != nil {
		return nil, err
	}
	if spec.SellingPrice.GreaterThan(product.MRP) {
		return nil, pkgerrors.Newf(pkgerrors.CodeBusinessRule,
			"selling price %s exceeds mrp %s for product %s",
			spec.SellingPrice, product.MRP, product.ID)
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.FindByProduct(ctx, order.ID, spec.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeBusinessRule,
			"order %s already has a line for product %s", order.ID, product.ID)
	}

	if err := s.stock.Adjust(ctx, tx, spec.ProductID, 0, spec.Quantity); err != nil {
		return nil, err
	}

	item := &models.OrderItem{
		ID:           uuid.New(),
		OrderID:      order.ID,
		ProductID:    spec.ProductID,
		Quantity:     spec.Quantity,
		SellingPrice: spec.SellingPrice,
	}
	if err := repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func validateSpec(spec orders.ItemSpec) error {
	if spec.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if spec.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if spec.SellingPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price must be non-negative")
	}
	return nil
}

func requireMutable(order *models.Order) error {
	if order.Status != enums.OrderStatusCreated {
		return pkgerrors.Newf(pkgerrors.CodeBusinessRule,
			"order %s is %s and can no longer change", order.ID, order.Status)
	}
	return nil
}
