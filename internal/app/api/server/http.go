package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/docs"
	"github.com/fatflowers/paygate/internal/app/api/handlers"
	mw "github.com/fatflowers/paygate/internal/app/api/middleware"
	"github.com/fatflowers/paygate/internal/app/service/admission"
	"github.com/fatflowers/paygate/internal/app/service/event_log"
	"github.com/fatflowers/paygate/internal/app/service/ledger"
	"github.com/fatflowers/paygate/internal/app/service/payment"
	"github.com/fatflowers/paygate/internal/platform/db"
	"github.com/fatflowers/paygate/internal/platform/storage"
	cfgpkg "github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxFileBytes
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	r.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", mw.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", mw.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func registerRoutes(
	lc fx.Lifecycle,
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	h *db.Handle,
	gate payment.Gate,
	adm admission.Admitter,
	store *ledger.Store,
	area *storage.Area,
	rec *metrics.Recorder,
	events *event_log.Service,
) {
	// Prometheus metrics
	if cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{Logger: log})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				p.Start()
				log.Infow("metrics started", "addr", cfg.MetricsAddr)
				return nil
			},
			OnStop: func(context.Context) error { return p.Close() },
		})
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub, cfg, string(h.Driver), pingDB(h))
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Payment and upload APIs, rate limited per client IP
	paid := r.Group("/")
	paid.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	if cfg.RateLimit.Enabled {
		paid.Use(mw.RateLimitMiddleware(mw.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	}
	obs := &handlers.Observers{Log: log, Metrics: rec, Events: events}
	handlers.RegisterPaymentRoutes(paid, gate, adm, cfg.Upload.MaxFileBytes, obs)

	// Admin APIs, only when credentials are configured
	if len(cfg.Admin.Accounts) == 0 {
		log.Infow("admin routes disabled: no admin accounts configured")
		return
	}
	admin := r.Group("/api/v1/admin")
	admin.Use(gin.BasicAuth(gin.Accounts(cfg.Admin.Accounts)), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterAdminRoutes(admin, store, area, cfg.Upload.MaxImages, rec)
}

func pingDB(h *db.Handle) handlers.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := h.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func runServer(lc fx.Lifecycle, sd fx.Shutdowner, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
