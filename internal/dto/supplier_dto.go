package dto

import "github.com/shopspring/decimal"

type CreateSupplierRequest struct {
	Name  string  `json:"name" validate:"required,min=2"`
	Phone *string `json:"phone"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// SettleDueRequest pays down a supplier's due amount from a store's cash
// balance. ReferenceID lets a caller retry a failed settlement without
// double-counting: reusing the same reference returns the original entry.
type SettleDueRequest struct {
	StoreID              string          `json:"store_id"     validate:"required,uuid"`
	Amount               decimal.Decimal `json:"amount"       validate:"required,gt=0"`
	ReferenceID          *string         `json:"reference_id" validate:"omitempty,uuid"`
	AllowNegativeBalance bool            `json:"allow_negative_balance"`
	Notes                *string         `json:"notes"`
}

type SupplierResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     *string         `json:"phone"`
	Email     *string         `json:"email"`
	DueAmount decimal.Decimal `json:"due_amount"`
	Active    bool            `json:"active"`
}

type SettlementResponse struct {
	ReferenceID  string          `json:"reference_id"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	RemainingDue decimal.Decimal `json:"remaining_due"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}
