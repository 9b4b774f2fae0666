package dto

import "github.com/shopspring/decimal"

type CreateSaleRequest struct {
	StoreID string          `json:"store_id" validate:"required,uuid"`
	Total   decimal.Decimal `json:"total"    validate:"required,gt=0"`
	Notes   *string         `json:"notes"`
}

// RefundSaleRequest refunds a completed sale. Amount may be omitted to
// refund the full sale total.
type RefundSaleRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Notes  *string          `json:"notes"`
}

type SaleResponse struct {
	ID         string          `json:"id"`
	StoreID    string          `json:"store_id"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status"`
	Notes      *string         `json:"notes"`
	NewBalance decimal.Decimal `json:"new_balance"`
	CreatedAt  string          `json:"created_at"`
}

type SaleFilter struct {
	StoreID string `form:"store_id"`
	Status  string `form:"status"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
