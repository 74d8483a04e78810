package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/paygate/internal/app/api/server"
	"github.com/fatflowers/paygate/internal/app/service/admission"
	eventlog "github.com/fatflowers/paygate/internal/app/service/event_log"
	"github.com/fatflowers/paygate/internal/app/service/ledger"
	"github.com/fatflowers/paygate/internal/app/service/payment"
	"github.com/fatflowers/paygate/internal/platform/db"
	"github.com/fatflowers/paygate/internal/platform/storage"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/logger"
	"github.com/fatflowers/paygate/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	storage.Module,
	ledger.Module,
	eventlog.Module,
	payment.Module,
	admission.Module,
	server.Module,
)
