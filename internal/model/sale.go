package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SaleStatusCompleted = "completed"
	SaleStatusRefunded  = "refunded"
)

// Sale is the caller aggregate for sale income. Only the fields the ledger
// flow needs live here; line items and pricing belong to the catalog
// system, which this backend treats as external.
type Sale struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes     *string
	Status    string    `gorm:"type:varchar(20);not null;default:'completed'"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
