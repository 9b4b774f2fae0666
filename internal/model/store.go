package model

import (
	"time"

	"github.com/google/uuid"
)

// Store is a physical shop. Each store owns exactly one StoreBalance row
// and its own slice of the ledger.
type Store struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Address   *string
	Phone     *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
