package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fatflowers/paygate/internal/models"
	cfgpkg "github.com/fatflowers/paygate/pkg/config"
	gormzap "github.com/fatflowers/paygate/pkg/gormlog"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

// Dialect resolves a DSN to its driver and the DSN the driver expects.
// "postgres://" and "postgresql://" go to postgres, "mysql://" is stripped and
// handed to mysql, anything else ("sqlite://" prefix optional) is a SQLite path.
func Dialect(dsn string) (Driver, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, dsn
	case strings.HasPrefix(dsn, "mysql://"):
		return DriverMySQL, strings.TrimPrefix(dsn, "mysql://")
	default:
		return DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	}
}

func dialector(driver Driver, dsn string) gorm.Dialector {
	switch driver {
	case DriverPostgres:
		return postgres.Open(dsn)
	case DriverMySQL:
		return mysql.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}

// Handle is the single long-lived ledger connection pool.
type Handle struct {
	*gorm.DB
	Driver Driver
}

// Open connects and pings. SQLite pools are capped at one connection so the
// driver serializes writers instead of failing with "database is locked".
func Open(l *zap.SugaredLogger, driver Driver, dsn string) (*Handle, error) {
	gdb, err := gorm.Open(dialector(driver, dsn), &gorm.Config{Logger: gormzap.New(l)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Handle{DB: gdb, Driver: driver}, nil
}

// probeSQLite returns the first candidate whose directory can be created and
// whose file can be opened for writing.
func probeSQLite(paths []string) (string, error) {
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			continue
		}
		f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			continue
		}
		_ = f.Close()
		return p, nil
	}
	return "", fmt.Errorf("no writable sqlite path among %d candidates", len(paths))
}

func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*Handle, error) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		p, err := probeSQLite(cfg.Database.SQLitePaths)
		if err != nil {
			l.Errorf("no viable ledger store: %v", err)
			return nil, err
		}
		dsn = p
	}
	driver, driverDSN := Dialect(dsn)
	h, err := Open(l, driver, driverDSN)
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to ledger database", "driver", driver)
	return h, nil
}

func provideGorm(h *Handle) *gorm.DB { return h.DB }

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Provide(provideGorm),
	fx.Invoke(AutoMigrate),
	fx.Invoke(registerDBClose),
)

// AutoMigrate creates the audit tables. The ledger table is owned by the
// ledger store.
func AutoMigrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := db.AutoMigrate(&models.PaymentEventLog{}); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing database connection pool")
			return sqlDB.Close()
		},
	})
}
