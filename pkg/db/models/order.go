package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailgrid/backoffice/pkg/enums"
)

// Order is the order header: status, customer fields, and the running total
// that must stay equal to the sum of its live line items while mutable.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'CREATED'"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerPhone string            `gorm:"column:customer_phone;not null"`
	InvoicePath   *string           `gorm:"column:invoice_path"`
	TotalAmount   decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Version       int               `gorm:"column:version;not null;default:0"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
