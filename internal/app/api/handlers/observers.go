package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/app/service/event_log"
	"github.com/fatflowers/paygate/pkg/metrics"
)

type EventRecorder interface {
	Record(ctx context.Context, e event_log.Entry)
}

// Observers is what the public handlers report outcomes to. Any field may be nil.
type Observers struct {
	Log     *zap.SugaredLogger
	Metrics *metrics.Recorder
	Events  EventRecorder
}

func (o *Observers) logger() *zap.SugaredLogger {
	if o == nil || o.Log == nil {
		return zap.NewNop().Sugar()
	}
	return o.Log
}

func (o *Observers) recorder() *metrics.Recorder {
	if o == nil {
		return nil
	}
	return o.Metrics
}

func (o *Observers) record(ctx context.Context, e event_log.Entry) {
	if o == nil || o.Events == nil {
		return
	}
	o.Events.Record(ctx, e)
}
