package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bdhishab/internal/config"
	"bdhishab/internal/dto"
	"bdhishab/internal/model"
	"bdhishab/internal/repository"
	"bdhishab/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplyParams describes one balance mutation. Amount is signed: positive
// credits the store, negative debits it.
type ApplyParams struct {
	StoreID                uuid.UUID
	Amount                 decimal.Decimal
	Type                   string
	ReferenceID            *string
	ReferenceType          *string
	Notes                  *string
	Actor                  uuid.UUID
	RequireSufficientFunds bool
}

// LedgerService is the only component allowed to mutate store balances and
// the entry log. Apply is the single mutation primitive; the named methods
// are thin wrappers fixing sign and policy per business event.
type LedgerService interface {
	Apply(ctx context.Context, p ApplyParams) (*dto.MovementResponse, error)

	ManualAdd(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error)
	ManualDeduct(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error)
	RecordSaleIncome(ctx context.Context, storeID, saleID uuid.UUID, amount decimal.Decimal, actor uuid.UUID) (*dto.MovementResponse, error)
	RecordExpense(ctx context.Context, storeID, expenseID uuid.UUID, amount decimal.Decimal, requireSufficientFunds bool, notes *string, actor uuid.UUID) (*dto.MovementResponse, error)
	Refund(ctx context.Context, storeID, saleID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error)
	SettleSupplierDue(ctx context.Context, storeID uuid.UUID, referenceID string, amount decimal.Decimal, requireSufficientFunds bool, notes *string, actor uuid.UUID) (*dto.MovementResponse, error)
	SettlePurchasePayment(ctx context.Context, storeID uuid.UUID, referenceID string, amount decimal.Decimal, requireSufficientFunds bool, notes *string, actor uuid.UUID) (*dto.MovementResponse, error)

	GetBalance(ctx context.Context, storeID uuid.UUID) (*dto.BalanceResponse, error)
	ListEntries(ctx context.Context, storeID uuid.UUID, filter dto.EntryFilter) (*dto.EntryListResponse, error)
	VerifyBalance(ctx context.Context, storeID uuid.UUID) (*dto.AuditResponse, error)
}

type ledgerService struct {
	repo       repository.LedgerRepository
	stores     repository.StoreRepository
	locks      *storeLocks
	dispatcher *worker.Dispatcher

	alertEmail     string
	alertThreshold decimal.Decimal
}

func NewLedgerService(repo repository.LedgerRepository, stores repository.StoreRepository, dispatcher *worker.Dispatcher, cfg *config.Config) LedgerService {
	threshold := decimal.Zero
	alertEmail := ""
	if cfg != nil {
		if t, err := decimal.NewFromString(cfg.LowBalanceThreshold); err == nil {
			threshold = t
		}
		alertEmail = cfg.AlertEmail
	}
	return &ledgerService{
		repo:           repo,
		stores:         stores,
		locks:          newStoreLocks(),
		dispatcher:     dispatcher,
		alertEmail:     alertEmail,
		alertThreshold: threshold,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

const maxApplyAttempts = 3

// ── Apply ─────────────────────────────────────────────────────────────────────
// Balance update and entry append commit as one unit or not at all. Applies
// against one store serialize: the in-process lock covers this instance, the
// FOR UPDATE row lock inside the transaction covers other instances sharing
// the database. Conflicts retry up to maxApplyAttempts before surfacing as
// ErrConcurrentConflict.

func (s *ledgerService) Apply(ctx context.Context, p ApplyParams) (*dto.MovementResponse, error) {
	if p.Amount.IsZero() {
		return nil, errors.New("amount must be non-zero")
	}

	unlock := s.locks.Lock(p.StoreID)
	defer unlock()

	var result *dto.MovementResponse
	var err error
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * 25 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			log.Warn().
				Str("store_id", p.StoreID.String()).
				Str("type", p.Type).
				Int("attempt", attempt+1).
				Msg("ledger: retrying apply after conflict")
		}
		result, err = s.applyOnce(ctx, p)
		if err == nil || !isRetryable(err) {
			break
		}
	}
	if err != nil {
		if isRetryable(err) {
			return nil, fmt.Errorf("%w: %v", ErrConcurrentConflict, err)
		}
		return nil, err
	}

	s.emitBalanceChanged(ctx, result)
	return result, nil
}

func (s *ledgerService) applyOnce(ctx context.Context, p ApplyParams) (*dto.MovementResponse, error) {
	var entry model.LedgerEntry
	var duplicate *model.LedgerEntry

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Idempotency: a reference that already produced an entry of this
		// type returns the original result and writes nothing.
		if p.ReferenceID != nil {
			if existing, err := s.repo.FindEntryByReferenceTx(ctx, tx, p.StoreID, *p.ReferenceID, p.Type); err == nil {
				duplicate = existing
				return nil
			}
		}

		balance, err := s.repo.FindBalanceForUpdateTx(ctx, tx, p.StoreID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			exists, exErr := s.stores.Exists(ctx, p.StoreID)
			if exErr != nil {
				return fmt.Errorf("%w: check store: %v", ErrPersistence, exErr)
			}
			if !exists {
				return ErrStoreNotFound
			}
			// First movement for this store: initialize the balance at 0
			// inside the same transaction.
			balance = &model.StoreBalance{StoreID: p.StoreID, CurrentBalance: decimal.Zero}
			if err := s.repo.CreateBalanceTx(ctx, tx, balance); err != nil {
				return fmt.Errorf("init balance: %w", err)
			}
		case err != nil:
			return fmt.Errorf("%w: read balance: %v", ErrPersistence, err)
		}

		newBalance := balance.CurrentBalance.Add(p.Amount)
		if p.RequireSufficientFunds && newBalance.IsNegative() {
			return ErrInsufficientBalance
		}

		if err := s.repo.UpdateBalanceTx(ctx, tx, p.StoreID, newBalance); err != nil {
			return fmt.Errorf("%w: update balance: %v", ErrPersistence, err)
		}
		entry = model.LedgerEntry{
			StoreID:       p.StoreID,
			Type:          p.Type,
			Amount:        p.Amount,
			BalanceAfter:  newBalance,
			ReferenceID:   p.ReferenceID,
			ReferenceType: p.ReferenceType,
			Notes:         p.Notes,
			CreatedBy:     p.Actor,
		}
		if err := s.repo.CreateEntryTx(ctx, tx, &entry); err != nil {
			return fmt.Errorf("append entry: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if duplicate != nil {
		return &dto.MovementResponse{Entry: entryToResponse(*duplicate), NewBalance: duplicate.BalanceAfter, Duplicate: true}, nil
	}
	return &dto.MovementResponse{Entry: entryToResponse(entry), NewBalance: entry.BalanceAfter}, nil
}

// isRetryable reports whether the storage error is a transient conflict:
// serialization failures, deadlocks, or the unique-index race when two
// transactions initialize the same balance row or reuse a reference.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreNotFound) || errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrPersistence) {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "duplicate key")
}

// emitBalanceChanged publishes the domain event and, when the balance fell
// below the configured threshold, enqueues an alert email. Best-effort:
// the committed apply result is never affected.
func (s *ledgerService) emitBalanceChanged(ctx context.Context, result *dto.MovementResponse) {
	if s.dispatcher == nil || result.Duplicate {
		return
	}
	event := worker.BalanceEvent{
		StoreID:      result.Entry.StoreID,
		EntryID:      result.Entry.ID,
		Type:         result.Entry.Type,
		Amount:       result.Entry.Amount,
		BalanceAfter: result.NewBalance,
	}
	if err := s.dispatcher.PublishBalanceChanged(ctx, event); err != nil {
		log.Warn().Err(err).Str("store_id", result.Entry.StoreID).Msg("ledger: failed to publish balance event")
	}

	if s.alertEmail != "" && result.NewBalance.LessThan(s.alertThreshold) {
		alert := worker.LowBalanceAlertPayload{
			ToEmail: s.alertEmail,
			StoreID: result.Entry.StoreID,
			Balance: result.NewBalance.String(),
		}
		if err := s.dispatcher.EnqueueLowBalanceAlert(ctx, alert); err != nil {
			log.Warn().Err(err).Str("store_id", result.Entry.StoreID).Msg("ledger: failed to enqueue low balance alert")
		}
	}
}

// ── Adjustors ─────────────────────────────────────────────────────────────────
// One wrapper per business event; each fixes the entry type, the amount
// sign, and the default funds policy (§ sign table in the README).

func (s *ledgerService) ManualAdd(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.Apply(ctx, ApplyParams{
		StoreID: storeID,
		Amount:  amount.Abs(),
		Type:    model.EntryManualAdd,
		Notes:   notes,
		Actor:   actor,
	})
}

func (s *ledgerService) ManualDeduct(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.Apply(ctx, ApplyParams{
		StoreID:                storeID,
		Amount:                 amount.Abs().Neg(),
		Type:                   model.EntryManualDeduct,
		Notes:                  notes,
		Actor:                  actor,
		RequireSufficientFunds: true,
	})
}

func (s *ledgerService) RecordSaleIncome(ctx context.Context, storeID, saleID uuid.UUID, amount decimal.Decimal, actor uuid.UUID) (*dto.MovementResponse, error) {
	ref := saleID.String()
	refType := "sale"
	return s.Apply(ctx, ApplyParams{
		StoreID:       storeID,
		Amount:        amount.Abs(),
		Type:          model.EntrySale,
		ReferenceID:   &ref,
		ReferenceType: &refType,
		Actor:         actor,
	})
}

func (s *ledgerService) RecordExpense(ctx context.Context, storeID, expenseID uuid.UUID, amount decimal.Decimal, requireSufficientFunds bool, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	ref := expenseID.String()
	refType := "expense"
	return s.Apply(ctx, ApplyParams{
		StoreID:                storeID,
		Amount:                 amount.Abs().Neg(),
		Type:                   model.EntryExpense,
		ReferenceID:            &ref,
		ReferenceType:          &refType,
		Notes:                  notes,
		Actor:                  actor,
		RequireSufficientFunds: requireSufficientFunds,
	})
}

// Refund debits the balance: cash handed back to the customer.
func (s *ledgerService) Refund(ctx context.Context, storeID, saleID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	ref := saleID.String()
	refType := "sale"
	return s.Apply(ctx, ApplyParams{
		StoreID:       storeID,
		Amount:        amount.Abs().Neg(),
		Type:          model.EntryRefund,
		ReferenceID:   &ref,
		ReferenceType: &refType,
		Notes:         notes,
		Actor:         actor,
	})
}

func (s *ledgerService) SettleSupplierDue(ctx context.Context, storeID uuid.UUID, referenceID string, amount decimal.Decimal, requireSufficientFunds bool, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	refType := "payment"
	return s.Apply(ctx, ApplyParams{
		StoreID:                storeID,
		Amount:                 amount.Abs().Neg(),
		Type:                   model.EntrySupplierPayment,
		ReferenceID:            &referenceID,
		ReferenceType:          &refType,
		Notes:                  notes,
		Actor:                  actor,
		RequireSufficientFunds: requireSufficientFunds,
	})
}

func (s *ledgerService) SettlePurchasePayment(ctx context.Context, storeID uuid.UUID, referenceID string, amount decimal.Decimal, requireSufficientFunds bool, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	refType := "purchase"
	return s.Apply(ctx, ApplyParams{
		StoreID:                storeID,
		Amount:                 amount.Abs().Neg(),
		Type:                   model.EntryPurchasePayment,
		ReferenceID:            &referenceID,
		ReferenceType:          &refType,
		Notes:                  notes,
		Actor:                  actor,
		RequireSufficientFunds: requireSufficientFunds,
	})
}

// ── Read API ──────────────────────────────────────────────────────────────────

func (s *ledgerService) GetBalance(ctx context.Context, storeID uuid.UUID) (*dto.BalanceResponse, error) {
	b, err := s.repo.FindBalance(ctx, storeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		exists, exErr := s.stores.Exists(ctx, storeID)
		if exErr != nil {
			return nil, fmt.Errorf("%w: check store: %v", ErrPersistence, exErr)
		}
		if !exists {
			return nil, ErrStoreNotFound
		}
		// Store exists but has no movements yet.
		return &dto.BalanceResponse{StoreID: storeID.String(), CurrentBalance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read balance: %v", ErrPersistence, err)
	}
	return &dto.BalanceResponse{
		StoreID:        b.StoreID.String(),
		CurrentBalance: b.CurrentBalance,
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, storeID uuid.UUID, filter dto.EntryFilter) (*dto.EntryListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	entries, total, err := s.repo.ListEntries(ctx, storeID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ErrPersistence, err)
	}
	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryToResponse(e))
	}
	return &dto.EntryListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *ledgerService) VerifyBalance(ctx context.Context, storeID uuid.UUID) (*dto.AuditResponse, error) {
	balance, err := s.GetBalance(ctx, storeID)
	if err != nil {
		return nil, err
	}
	sum, count, err := s.repo.SumEntries(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: replay entries: %v", ErrPersistence, err)
	}
	return &dto.AuditResponse{
		StoreID:        storeID.String(),
		CurrentBalance: balance.CurrentBalance,
		ReplaySum:      sum,
		EntryCount:     count,
		Consistent:     balance.CurrentBalance.Equal(sum),
	}, nil
}

func entryToResponse(e model.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:            e.ID.String(),
		StoreID:       e.StoreID.String(),
		Type:          e.Type,
		Amount:        e.Amount,
		BalanceAfter:  e.BalanceAfter,
		ReferenceID:   e.ReferenceID,
		ReferenceType: e.ReferenceType,
		Notes:         e.Notes,
		CreatedBy:     e.CreatedBy.String(),
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}
