package repository

import (
	"context"

	"bdhishab/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context) ([]model.Supplier, error)
	// AdjustDue atomically shifts the supplier's due amount by delta
	// (positive on purchase, negative on settlement).
	AdjustDue(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	AdjustDueTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) AdjustDue(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("id = ?", id).
		Update("due_amount", gorm.Expr("due_amount + ?", delta)).Error
}

func (r *supplierRepo) AdjustDueTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.Supplier{}).
		Where("id = ?", id).
		Update("due_amount", gorm.Expr("due_amount + ?", delta)).Error
}
