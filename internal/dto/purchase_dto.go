package dto

import "github.com/shopspring/decimal"

type CreatePurchaseRequest struct {
	StoreID    string          `json:"store_id"    validate:"required,uuid"`
	SupplierID string          `json:"supplier_id" validate:"required,uuid"`
	Total      decimal.Decimal `json:"total"       validate:"required,gt=0"`
	Notes      *string         `json:"notes"`
}

// PayPurchaseRequest settles part or all of a purchase's due amount.
// Semantics of ReferenceID match SettleDueRequest.
type PayPurchaseRequest struct {
	Amount               decimal.Decimal `json:"amount"       validate:"required,gt=0"`
	ReferenceID          *string         `json:"reference_id" validate:"omitempty,uuid"`
	AllowNegativeBalance bool            `json:"allow_negative_balance"`
	Notes                *string         `json:"notes"`
}

type PurchaseResponse struct {
	ID         string          `json:"id"`
	StoreID    string          `json:"store_id"`
	SupplierID string          `json:"supplier_id"`
	Supplier   string          `json:"supplier"`
	Total      decimal.Decimal `json:"total"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	DueAmount  decimal.Decimal `json:"due_amount"`
	Status     string          `json:"status"`
	Notes      *string         `json:"notes"`
	CreatedAt  string          `json:"created_at"`
}

type PurchaseFilter struct {
	StoreID    string `form:"store_id"`
	SupplierID string `form:"supplier_id"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

type PurchaseListResponse struct {
	Data  []PurchaseResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
