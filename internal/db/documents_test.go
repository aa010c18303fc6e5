package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsbot/internal/db"
	"opsbot/internal/models"
	"opsbot/internal/testutil"
)

func TestNextDocumentNumber(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := db.NextDocumentNumber(ctx, database.Pool, "QO", 2026)
	require.NoError(t, err)
	assert.Equal(t, "QO-2026-00001", first)

	second, err := db.NextDocumentNumber(ctx, database.Pool, "QO", 2026)
	require.NoError(t, err)
	assert.Equal(t, "QO-2026-00002", second)

	// Each (prefix, year) pair counts independently.
	po, err := db.NextDocumentNumber(ctx, database.Pool, "PO", 2026)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00001", po)

	nextYear, err := db.NextDocumentNumber(ctx, database.Pool, "QO", 2027)
	require.NoError(t, err)
	assert.Equal(t, "QO-2027-00001", nextYear)
}

func TestNextDocumentNumberConcurrent(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 10
	numbers := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			numbers[i], errs[i] = db.WithTx(ctx, database.Pool, func(tx pgx.Tx) (string, error) {
				return db.NextDocumentNumber(ctx, tx, "QO", 2026)
			})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[numbers[i]], "duplicate document number %s", numbers[i])
		seen[numbers[i]] = true
	}
}

func TestLockAndClosePurchaseOrder(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	vendorID := testutil.CreateTestVendor(t, database, "Globex Supply", "Denver")

	closed, err := db.WithTx(ctx, database.Pool, func(tx pgx.Tx) (bool, error) {
		number, err := db.NextDocumentNumber(ctx, tx, "PO", 2026)
		if err != nil {
			return false, err
		}
		order := &models.PurchaseOrder{Number: number, VendorID: vendorID, Status: models.DocStatusOpen}
		if err := db.InsertPurchaseOrder(ctx, tx, order); err != nil {
			return false, err
		}

		locked, err := db.LockPurchaseOrder(ctx, tx, order.ID)
		if err != nil {
			return false, err
		}
		if err := db.ClosePurchaseOrder(ctx, tx, locked.ID, time.Now()); err != nil {
			return false, err
		}

		reread, err := db.LockPurchaseOrder(ctx, tx, order.ID)
		if err != nil {
			return false, err
		}
		return reread.Status == models.DocStatusClosed && reread.ClosedAt != nil, nil
	})
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestLockPurchaseOrderNotFound(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()

	_, err := db.WithTx(context.Background(), database.Pool, func(tx pgx.Tx) (any, error) {
		return db.LockPurchaseOrder(context.Background(), tx, 999999)
	})
	assert.ErrorIs(t, err, db.ErrOrderNotFound)
}
