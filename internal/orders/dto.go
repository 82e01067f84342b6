package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailgrid/backoffice/pkg/db/models"
	"github.com/retailgrid/backoffice/pkg/enums"
	"github.com/retailgrid/backoffice/pkg/pagination"
)

// ItemSpec is one requested line on an order: the product, how many, and at
// what price. The same shape feeds both order insert and single-item adds.
type ItemSpec struct {
	ProductID    uuid.UUID
	Quantity     int
	SellingPrice decimal.Decimal
}

// Value returns the amount this line contributes to the order total.
func (s ItemSpec) Value() decimal.Decimal {
	return s.SellingPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// InsertInput captures a full order submission.
type InsertInput struct {
	CustomerName  string
	CustomerPhone string
	Items         []ItemSpec
}

// UpdateFieldsInput patches the mutable customer fields on an order header.
// Version is the version the caller last read; a stale value is rejected.
type UpdateFieldsInput struct {
	OrderID       uuid.UUID
	CustomerName  string
	CustomerPhone string
	Version       int
}

// ListQuery filters and pages the order listing.
type ListQuery struct {
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// ListResult is one page of orders plus the cursor for the next page.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}
