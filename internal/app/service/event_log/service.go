package event_log

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/logctx"
	"github.com/fatflowers/paygate/pkg/tool"
	"github.com/fatflowers/paygate/pkg/types"
)

// Entry is one verify or upload attempt. Category is empty on success.
type Entry struct {
	Kind         types.EventKind
	Reference    string
	PayerAddress string
	Category     string
	Request      any
	Result       any
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Record converts e to a log row and saves it asynchronously.
func (s *Service) Record(ctx context.Context, e Entry) {
	row := &models.PaymentEventLog{
		Kind:         e.Kind,
		Reference:    e.Reference,
		PayerAddress: e.PayerAddress,
		TraceID:      logctx.TraceID(ctx),
		Category:     e.Category,
		Status:       models.PaymentEventLogStatusHandled,
		CreatedAt:    time.Now().UTC(),
	}
	if e.Category != "" {
		row.Status = models.PaymentEventLogStatusHandleFailed
	}
	if e.Request != nil {
		if b, err := json.Marshal(e.Request); err == nil {
			row.Data = datatypes.JSON(b)
		}
	}
	if e.Result != nil {
		if b, err := json.Marshal(e.Result); err == nil {
			res := datatypes.JSON(b)
			row.Result = &res
		}
	}
	s.Save(ctx, row)
}

// Save asynchronously persists an event log row. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.PaymentEventLog) {
	if log == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if log.ID == "" {
			log.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.WithContext(context.WithoutCancel(ctx)).Save(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save event log: %v", err)
		}
	}()
}

// Wait blocks until pending saves finish.
func (s *Service) Wait() { s.wg.Wait() }

func registerFlush(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			s.Wait()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerFlush),
)
