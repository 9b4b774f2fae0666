package dto

import "github.com/shopspring/decimal"

type CreateExpenseRequest struct {
	StoreID           string          `json:"store_id" validate:"required,uuid"`
	Category          string          `json:"category" validate:"required,min=2"`
	Amount            decimal.Decimal `json:"amount"   validate:"required,gt=0"`
	Notes             *string         `json:"notes"`
	DeductFromBalance bool            `json:"deduct_from_balance"`
	// AllowNegativeBalance disables the sufficient-funds check for the
	// ledger deduction. Ignored when DeductFromBalance is false.
	AllowNegativeBalance bool `json:"allow_negative_balance"`
}

type ExpenseResponse struct {
	ID                string          `json:"id"`
	StoreID           string          `json:"store_id"`
	Category          string          `json:"category"`
	Amount            decimal.Decimal `json:"amount"`
	Notes             *string         `json:"notes"`
	DeductFromBalance bool            `json:"deduct_from_balance"`
	// NewBalance is nil when the expense did not touch the ledger.
	NewBalance *decimal.Decimal `json:"new_balance"`
	CreatedAt  string           `json:"created_at"`
}

type ExpenseFilter struct {
	StoreID  string `form:"store_id"`
	Category string `form:"category"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type ExpenseListResponse struct {
	Data  []ExpenseResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
