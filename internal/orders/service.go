package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// lineItems is the slice of the item ledger the order ledger needs: attaching
// lines during insert and reading them back during cancellation. Attach must
// not touch the order total; the caller owns that bookkeeping.
type lineItems interface {
	Attach(ctx context.Context, tx *gorm.DB, order *models.Order, spec ItemSpec) (*models.OrderItem, error)
	ListByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]models.OrderItem, error)
}

type stockLedger interface {
	Adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, oldQty, newQty int) error
}

// invoiceGenerator renders the invoice document for an order and returns the
// path it was stored under.
type invoiceGenerator interface {
	Generate(ctx context.Context, order *models.Order) (string, error)
}

// Service covers the order lifecycle: atomic insert, header updates while
// mutable, and the two terminal transitions.
type Service interface {
	Insert(ctx context.Context, input InsertInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	UpdateFields(ctx context.Context, input UpdateFieldsInput) (*models.Order, error)
	MarkInvoiced(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	items    lineItems
	stock    stockLedger
	invoices invoiceGenerator
	tx       txRunner
}

// NewService builds the order service with the required collaborators.
func NewService(repo Repository, items lineItems, stock stockLedger, invoices invoiceGenerator, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("line item ledger required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice generator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		items:    items,
		stock:    stock,
		invoices: invoices,
		tx:       tx,
	}, nil
}

// Insert creates the order header and all of its lines in one transaction.
// Any failed line, including insufficient stock, rolls back the whole order.
func (s *service) Insert(ctx context.Context, input InsertInput) (*models.Order, error) {
	name := strings.TrimSpace(input.CustomerName)
	phone := strings.TrimSpace(input.CustomerPhone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}

	total := decimal.Zero
	for _, spec := range input.Items {
		if spec.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required on every item")
		}
		if spec.Quantity <= 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be positive for product %s", spec.ProductID)
		}
		if spec.SellingPrice.IsNegative() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "selling price must be non-negative for product %s", spec.ProductID)
		}
		total = total.Add(spec.Value())
	}

	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusCreated,
		CustomerName:  name,
		CustomerPhone: phone,
		TotalAmount:   total,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		for _, spec := range input.Items {
			item, err := s.items.Attach(ctx, tx, order, spec)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, *item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.FindDetail(ctx, id)
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	if query.Status != nil && !query.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", *query.Status)
	}
	return s.repo.List(ctx, query)
}

// UpdateFields patches the customer fields. Terminal orders reject the write.
func (s *service) UpdateFields(ctx context.Context, input UpdateFieldsInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	name := strings.TrimSpace(input.CustomerName)
	phone := strings.TrimSpace(input.CustomerPhone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeBusinessRule,
			"order %s is %s and can no longer change", order.ID, order.Status)
	}

	err = s.repo.UpdateCAS(ctx, order.ID, input.Version, map[string]any{
		"customer_name":  name,
		"customer_phone": phone,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, input.OrderID)
}

// MarkInvoiced generates the invoice document and moves the order to
// INVOICED. Only CREATED orders can be invoiced.
func (s *service) MarkInvoiced(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusCreated {
		return nil, pkgerrors.Newf(pkgerrors.CodeBusinessRule,
			"cannot invoice order %s: status is %s", order.ID, order.Status)
	}

	path, err := s.invoices.Generate(ctx, order)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateCAS(ctx, order.ID, order.Version, map[string]any{
		"status":       enums.OrderStatusInvoiced,
		"invoice_path": path,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Cancel moves a CREATED order to CANCELLED and returns every line's quantity
// to stock exactly once, all in the same transaction.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusCreated {
			return pkgerrors.Newf(pkgerrors.CodeBusinessRule,
				"cannot cancel order %s: status is %s", order.ID, order.Status)
		}

		items, err := s.items.ListByOrderTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.stock.Adjust(ctx, tx, item.ProductID, item.Quantity, 0); err != nil {
				return err
			}
		}

		return s.repo.WithTx(tx).UpdateCAS(ctx, order.ID, order.Version, map[string]any{
			"status": enums.OrderStatusCancelled,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes an order and its lines without any stock movement. It sits
// outside the lifecycle and exists for operational cleanup only.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}
