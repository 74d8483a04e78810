package event_log

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/types"
)

func newServiceForTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.PaymentEventLog{}))
	return New(db, zap.NewNop().Sugar()), db
}

func TestRecord_PersistsSuccessAndFailure(t *testing.T) {
	s, db := newServiceForTest(t)
	ctx := logctx.WithTraceID(context.Background(), "trace-1")

	s.Record(ctx, Entry{
		Kind:         types.EventKindVerify,
		Reference:    "tx1",
		PayerAddress: "0xABC",
		Request:      map[string]string{"reference": "tx1"},
		Result:       map[string]bool{"readyToUpload": true},
	})
	s.Record(ctx, Entry{Kind: types.EventKindUpload, Reference: "tx2", Category: "payment_not_verified"})
	s.Wait()

	var rows []models.PaymentEventLog
	require.NoError(t, db.Order("reference").Find(&rows).Error)
	require.Len(t, rows, 2)

	ok := rows[0]
	require.NotEmpty(t, ok.ID)
	require.Equal(t, "trace-1", ok.TraceID)
	require.Equal(t, models.PaymentEventLogStatusHandled, ok.Status)
	var req map[string]string
	require.NoError(t, json.Unmarshal(ok.Data, &req))
	require.Equal(t, "tx1", req["reference"])
	require.NotNil(t, ok.Result)

	failed := rows[1]
	require.Equal(t, models.PaymentEventLogStatusHandleFailed, failed.Status)
	require.Equal(t, "payment_not_verified", failed.Category)
	require.Nil(t, failed.Result)
}

func TestSave_IgnoresNil(t *testing.T) {
	s, db := newServiceForTest(t)
	s.Save(context.Background(), nil)
	s.Wait()

	var n int64
	require.NoError(t, db.Model(&models.PaymentEventLog{}).Count(&n).Error)
	require.Zero(t, n)
}
