package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry types. The sign convention is fixed per type and never mixed:
// credits are positive, debits negative. Refunds are debits: cash leaving
// the drawer back to the customer.
const (
	EntrySale            = "sale"
	EntryManualAdd       = "manual_add"
	EntryManualDeduct    = "manual_deduct"
	EntryExpense         = "expense"
	EntryRefund          = "refund"
	EntrySupplierPayment = "supplier_payment"
	EntryPurchasePayment = "purchase_payment"
)

// StoreBalance is the single running-balance row per store. It exists
// redundantly to the entry history so reads are O(1); the invariant is that
// CurrentBalance always equals the BalanceAfter of the newest LedgerEntry.
// Created lazily with value 0 on the first apply, never deleted.
type StoreBalance struct {
	StoreID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	UpdatedAt      time.Time
}

func (StoreBalance) TableName() string { return "store_balances" }

// LedgerEntry is an immutable event in the store balance ledger.
// Entries are NEVER modified or deleted; corrections create new
// opposite-sign entries. BalanceAfter snapshots the running balance
// immediately after this entry was applied.
type LedgerEntry struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID      uuid.UUID       `gorm:"type:uuid;index;not null;uniqueIndex:idx_entry_reference,priority:1"`
	Type         string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_entry_reference,priority:3"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ReferenceID links to the originating sale, expense or payment and makes
	// the apply idempotent: (store_id, reference_id, type) is unique.
	ReferenceID   *string `gorm:"type:varchar(64);uniqueIndex:idx_entry_reference,priority:2,where:reference_id IS NOT NULL"`
	ReferenceType *string `gorm:"type:varchar(20)"`
	Notes         *string
	CreatedBy     uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time `gorm:"index"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
