package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is the caller aggregate for shop expenses. DeductFromBalance
// records whether the expense touched the ledger at all: when false the
// expense lives only in this table and no ledger entry exists for it.
type Expense struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	Category          string          `gorm:"type:varchar(50);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes             *string
	DeductFromBalance bool      `gorm:"not null;default:true"`
	CreatedBy         uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt         time.Time
}
