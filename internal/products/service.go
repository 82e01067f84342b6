package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailgrid/backoffice/pkg/db/models"
	pkgerrors "github.com/retailgrid/backoffice/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type clientLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// Service exposes single-product catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, input UpdateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

// CreateInput carries the fields for a new catalog entry.
type CreateInput struct {
	ClientID uuid.UUID
	Barcode  string
	Name     string
	MRP      decimal.Decimal
}

// UpdateInput patches an existing catalog entry. Barcode is immutable.
type UpdateInput struct {
	ID   uuid.UUID
	Name string
	MRP  decimal.Decimal
}

type service struct {
	repo    Repository
	clients clientLookup
	tx      txRunner
}

// NewService wires the product service with its dependencies.
func NewService(repo Repository, clients clientLookup, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, clients: clients, tx: tx}, nil
}

// NormalizeKey produces the comparison form of a natural key.
func NormalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	barcode := NormalizeKey(input.Barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.MRP.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mrp must be non-negative")
	}
	if _, err := s.clients.FindByID(ctx, input.ClientID); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:       uuid.New(),
		ClientID: input.ClientID,
		Barcode:  barcode,
		Name:     strings.TrimSpace(input.Name),
		MRP:      input.MRP,
	}

	// The inventory row is created exactly once, with the product, at zero.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if existing, err := repo.ListByBarcodes(ctx, []string{barcode}); err != nil {
			return err
		} else if len(existing) > 0 {
			return pkgerrors.Newf(pkgerrors.CodeBusinessRule, "barcode %q already exists", barcode)
		}
		if _, err := repo.Create(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
		}
		inv := &models.InventoryItem{ProductID: product.ID, Quantity: 0}
		if err := tx.WithContext(ctx).Create(inv).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert inventory row")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.MRP.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mrp must be non-negative")
	}

	product, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	product.Name = strings.TrimSpace(input.Name)
	product.MRP = input.MRP
	if _, err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return s.repo.FindByBarcode(ctx, NormalizeKey(barcode))
}

func (s *service) List(ctx context.Context) ([]models.Product, error) {
	return s.repo.List(ctx)
}
