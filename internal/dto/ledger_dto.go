package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ManualMovementRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Notes  *string         `json:"notes"`
}

// EntryFilter is bound from query parameters on the history endpoint.
// Sign: "credit" (amount > 0) | "debit" (amount < 0) | "" (all).
type EntryFilter struct {
	Type  string `form:"type"`
	From  string `form:"from"` // YYYY-MM-DD
	To    string `form:"to"`   // YYYY-MM-DD
	Sign  string `form:"sign"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LedgerEntryResponse struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"store_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceID   *string         `json:"reference_id"`
	ReferenceType *string         `json:"reference_type"`
	Notes         *string         `json:"notes"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     string          `json:"created_at"`
}

type BalanceResponse struct {
	StoreID        string          `json:"store_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	UpdatedAt      string          `json:"updated_at"`
}

// MovementResponse is returned by every balance-mutating endpoint.
// Duplicate is true when the reference had already been applied and the
// original entry was returned instead of writing a new one.
type MovementResponse struct {
	Entry      LedgerEntryResponse `json:"entry"`
	NewBalance decimal.Decimal     `json:"new_balance"`
	Duplicate  bool                `json:"duplicate,omitempty"`
}

type EntryListResponse struct {
	Data  []LedgerEntryResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// AuditResponse compares the stored running balance against a full replay
// of the entry history.
type AuditResponse struct {
	StoreID        string          `json:"store_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	ReplaySum      decimal.Decimal `json:"replay_sum"`
	EntryCount     int64           `json:"entry_count"`
	Consistent     bool            `json:"consistent"`
}
