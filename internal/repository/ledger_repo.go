package repository

import (
	"context"
	"time"

	"bdhishab/internal/dto"
	"bdhishab/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository persists the balance row and the append-only entry log.
// All *_Tx methods must run inside the transaction the service opened: the
// balance update and the entry insert are only correct as one unit.
type LedgerRepository interface {
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
	FindBalanceForUpdateTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (*model.StoreBalance, error)
	CreateBalanceTx(ctx context.Context, tx *gorm.DB, b *model.StoreBalance) error
	UpdateBalanceTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, newBalance decimal.Decimal) error
	CreateEntryTx(ctx context.Context, tx *gorm.DB, e *model.LedgerEntry) error
	FindEntryByReferenceTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, referenceID, entryType string) (*model.LedgerEntry, error)

	FindBalance(ctx context.Context, storeID uuid.UUID) (*model.StoreBalance, error)
	ListEntries(ctx context.Context, storeID uuid.UUID, filter dto.EntryFilter) ([]model.LedgerEntry, int64, error)
	SumEntries(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, int64, error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) DB() *gorm.DB { return r.db }

// FindBalanceForUpdateTx reads the balance row under SELECT ... FOR UPDATE,
// blocking concurrent appliers on the same store until the transaction ends.
func (r *ledgerRepo) FindBalanceForUpdateTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (*model.StoreBalance, error) {
	var b model.StoreBalance
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ?", storeID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ledgerRepo) CreateBalanceTx(ctx context.Context, tx *gorm.DB, b *model.StoreBalance) error {
	return tx.WithContext(ctx).Create(b).Error
}

func (r *ledgerRepo) UpdateBalanceTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, newBalance decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&model.StoreBalance{}).
		Where("store_id = ?", storeID).
		Updates(map[string]interface{}{"current_balance": newBalance, "updated_at": time.Now()}).Error
}

func (r *ledgerRepo) CreateEntryTx(ctx context.Context, tx *gorm.DB, e *model.LedgerEntry) error {
	return tx.WithContext(ctx).Create(e).Error
}

func (r *ledgerRepo) FindEntryByReferenceTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, referenceID, entryType string) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := tx.WithContext(ctx).
		Where("store_id = ? AND reference_id = ? AND type = ?", storeID, referenceID, entryType).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ledgerRepo) FindBalance(ctx context.Context, storeID uuid.UUID) (*model.StoreBalance, error) {
	var b model.StoreBalance
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ledgerRepo) ListEntries(ctx context.Context, storeID uuid.UUID, filter dto.EntryFilter) ([]model.LedgerEntry, int64, error) {
	var entries []model.LedgerEntry
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("store_id = ?", storeID)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != "" {
		q = q.Where("DATE(created_at) >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("DATE(created_at) <= ?", filter.To)
	}
	switch filter.Sign {
	case "credit":
		q = q.Where("amount > 0")
	case "debit":
		q = q.Where("amount < 0")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC, id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&entries).Error

	return entries, total, err
}

// SumEntries replays the full history: the result must always equal the
// stored running balance.
func (r *ledgerRepo) SumEntries(ctx context.Context, storeID uuid.UUID) (decimal.Decimal, int64, error) {
	var row struct {
		Sum   decimal.Decimal
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS sum, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Scan(&row).Error
	return row.Sum, row.Count, err
}
