package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PurchaseStatusDue     = "due"
	PurchaseStatusPartial = "partial"
	PurchaseStatusPaid    = "paid"
)

// Purchase is a stock purchase from a supplier. DueAmount = Total -
// PaidAmount; payments reduce it and write a purchase_payment ledger entry.
type Purchase struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	SupplierID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DueAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status     string          `gorm:"type:varchar(20);not null;default:'due'"`
	Notes      *string
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}
