//go:build integration

package repository

// Integration tests for the ledger repository against real Postgres via
// testcontainers. Run with: go test -tags integration ./internal/repository/... -v

import (
	"context"
	"testing"

	"bdhishab/internal/infra"
	"bdhishab/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("bdhishab_test"),
		tcPostgres.WithUsername("bdhishab"),
		tcPostgres.WithPassword("bdhishab"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	return db
}

func seedStore(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	store := model.Store{ID: uuid.New(), Name: "Integration Store", Active: true}
	require.NoError(t, db.Create(&store).Error)
	return store.ID
}

func TestLedgerRepoAppendAndSum(t *testing.T) {
	db := setupDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	storeID := seedStore(t, db)
	actor := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateBalanceTx(ctx, tx, &model.StoreBalance{
			StoreID:        storeID,
			CurrentBalance: decimal.Zero,
		}); err != nil {
			return err
		}
		if err := repo.UpdateBalanceTx(ctx, tx, storeID, decimal.NewFromInt(500)); err != nil {
			return err
		}
		return repo.CreateEntryTx(ctx, tx, &model.LedgerEntry{
			StoreID:      storeID,
			Type:         model.EntryManualAdd,
			Amount:       decimal.NewFromInt(500),
			BalanceAfter: decimal.NewFromInt(500),
			CreatedBy:    actor,
		})
	})
	require.NoError(t, err)

	b, err := repo.FindBalance(ctx, storeID)
	require.NoError(t, err)
	assert.True(t, b.CurrentBalance.Equal(decimal.NewFromInt(500)))

	sum, count, err := repo.SumEntries(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, sum.Equal(b.CurrentBalance))
}

func TestLedgerRepoReferenceUniqueness(t *testing.T) {
	db := setupDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	storeID := seedStore(t, db)
	actor := uuid.New()
	ref := uuid.New().String()

	entry := func(entryType string) *model.LedgerEntry {
		return &model.LedgerEntry{
			StoreID:      storeID,
			Type:         entryType,
			Amount:       decimal.NewFromInt(100),
			BalanceAfter: decimal.NewFromInt(100),
			ReferenceID:  &ref,
			CreatedBy:    actor,
		}
	}

	require.NoError(t, repo.CreateEntryTx(ctx, db, entry(model.EntrySale)))

	// Same (store, reference, type) must be rejected by the partial index
	err := repo.CreateEntryTx(ctx, db, entry(model.EntrySale))
	assert.Error(t, err)

	// Same reference with a different type is a distinct movement
	assert.NoError(t, repo.CreateEntryTx(ctx, db, entry(model.EntryRefund)))

	found, err := repo.FindEntryByReferenceTx(ctx, db, storeID, ref, model.EntrySale)
	require.NoError(t, err)
	assert.Equal(t, model.EntrySale, found.Type)
}

func TestLedgerRepoLockedReadModifyWrite(t *testing.T) {
	db := setupDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()
	storeID := seedStore(t, db)

	require.NoError(t, repo.CreateBalanceTx(ctx, db, &model.StoreBalance{
		StoreID:        storeID,
		CurrentBalance: decimal.NewFromInt(1000),
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := repo.FindBalanceForUpdateTx(ctx, tx, storeID)
		if err != nil {
			return err
		}
		return repo.UpdateBalanceTx(ctx, tx, storeID, b.CurrentBalance.Add(decimal.NewFromInt(250)))
	})
	require.NoError(t, err)

	b, err := repo.FindBalance(ctx, storeID)
	require.NoError(t, err)
	assert.True(t, b.CurrentBalance.Equal(decimal.NewFromInt(1250)))
}
