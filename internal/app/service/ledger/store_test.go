package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fatflowers/paygate/pkg/types"
)

func newStoreForTest(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewStore(db)
	require.NoError(t, s.InitializeSchema(context.Background()))
	return s
}

var price = decimal.RequireFromString("5.00")

func TestInitializeSchema_Idempotent(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	require.NoError(t, s.InsertVerified(ctx, "tx1", price, "0xABC"))

	require.NoError(t, s.InitializeSchema(ctx))
	rec, err := s.Get(ctx, "tx1")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestInsertVerified_RejectsDuplicate(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, s.InsertVerified(ctx, "tx1", price, "0xABC"))
	err := s.InsertVerified(ctx, "tx1", price, "0xDEF")
	require.ErrorIs(t, err, ErrAlreadyExists)

	rec, err := s.Get(ctx, "tx1")
	require.NoError(t, err)
	require.Equal(t, "0xABC", rec.PayerAddress)
	require.Equal(t, types.PaymentStatusVerified, rec.Status)
	require.Nil(t, rec.LinkedFile)
	require.True(t, rec.Amount.Equal(price))
}

func TestInsertVerified_RejectsConsumedDuplicate(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, s.InsertVerified(ctx, "tx1", price, "0xABC"))
	require.NoError(t, s.MarkConsumed(ctx, "tx1", "a.jpg"))
	require.ErrorIs(t, s.InsertVerified(ctx, "tx1", price, "0xABC"), ErrAlreadyExists)
}

func TestInsertVerified_ConcurrentSameReference(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertVerified(ctx, "tx-race", price, "0xABC")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyExists):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, 15, dup.Load())
}

func TestFindUnconsumed(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()

	rec, err := s.FindUnconsumed(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, rec)

	require.NoError(t, s.InsertVerified(ctx, "tx1", price, "0xABC"))
	rec, err = s.FindUnconsumed(ctx, "tx1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "tx1", rec.Reference)

	require.NoError(t, s.MarkConsumed(ctx, "tx1", "a.jpg"))
	rec, err = s.FindUnconsumed(ctx, "tx1")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestMarkConsumed_LinksFileOnce(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()

	require.ErrorIs(t, s.MarkConsumed(ctx, "missing", "a.jpg"), ErrNotFoundOrAlreadyConsumed)

	require.NoError(t, s.InsertVerified(ctx, "tx1", price, "0xABC"))
	require.NoError(t, s.MarkConsumed(ctx, "tx1", "a.jpg"))
	require.ErrorIs(t, s.MarkConsumed(ctx, "tx1", "b.jpg"), ErrNotFoundOrAlreadyConsumed)

	rec, err := s.Get(ctx, "tx1")
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusConsumed, rec.Status)
	require.NotNil(t, rec.LinkedFile)
	require.Equal(t, "a.jpg", *rec.LinkedFile)
	require.NotNil(t, rec.ConsumedAt)
}

func TestMarkConsumed_ConcurrentSingleWinner(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	require.NoError(t, s.InsertVerified(ctx, "tx1", price, "0xABC"))

	var wins atomic.Int32
	var winner atomic.Value
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("f-%d.jpg", i)
			if err := s.MarkConsumed(ctx, "tx1", name); err == nil {
				wins.Add(1)
				winner.Store(name)
			} else {
				assert.ErrorIs(t, err, ErrNotFoundOrAlreadyConsumed)
			}
		}(i)
	}
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())

	rec, err := s.Get(ctx, "tx1")
	require.NoError(t, err)
	require.Equal(t, winner.Load(), *rec.LinkedFile)
}

func TestScanAndStats(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertVerified(ctx, fmt.Sprintf("tx%d", i), price, "0xABC"))
	}
	require.NoError(t, s.MarkConsumed(ctx, "tx0", "a.jpg"))

	res, err := s.Scan(ctx, &ScanRequest{
		Filters: []*types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"verified"}}},
		SortBy:  "reference", SortOrder: "asc",
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	require.Equal(t, "tx1", res.Items[0].Reference)

	_, err = s.Scan(ctx, &ScanRequest{SortBy: "amount; DROP TABLE payment_record"})
	require.ErrorIs(t, err, ErrInvalidScan)
	_, err = s.Scan(ctx, &ScanRequest{Filters: []*types.CommonFilter{{Field: "password", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}}})
	require.ErrorIs(t, err, ErrInvalidScan)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, st.Verified)
	require.EqualValues(t, 1, st.Consumed)
	require.True(t, st.Collected.Equal(decimal.RequireFromString("15")), st.Collected.String())
}
