package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apirest "github.com/unrealsaint/lucera2missionparser/api/rest"
	"github.com/unrealsaint/lucera2missionparser/api/sse"
	"github.com/unrealsaint/lucera2missionparser/audit"
	"github.com/unrealsaint/lucera2missionparser/cache"
	"github.com/unrealsaint/lucera2missionparser/config"
	dbadapter "github.com/unrealsaint/lucera2missionparser/db"
	"github.com/unrealsaint/lucera2missionparser/editor"
	"github.com/unrealsaint/lucera2missionparser/logging"
	"github.com/unrealsaint/lucera2missionparser/metrics"
	mw "github.com/unrealsaint/lucera2missionparser/middleware"
	"github.com/unrealsaint/lucera2missionparser/model"
	"github.com/unrealsaint/lucera2missionparser/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	logger, err := logging.New(cfg.Server.Debug, cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret must be set")
	}
	if len(cfg.Security.Editors) == 0 {
		logger.Warn("no security.editors configured; nobody can log in")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		logger.Fatal("pubsub init failed", zap.Error(err))
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Metrics ----
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	codecMetrics := metrics.NewCodecMetrics("rewards", registry)

	// ---- Editor ----
	svc := editor.New(editor.Options{
		Catalog: cfg.Catalog,
		DB:      db,
		Cache:   c,
		PubSub:  pubsub,
		Audit:   auditSvc,
		Metrics: codecMetrics,
		Logger:  logger,
	})
	if cfg.Catalog.LoadOnStart {
		loadCatalog(context.Background(), svc, cfg.Catalog, logger)
	}

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if cfg.Catalog.AutosaveInterval > 0 {
		sched.AddTicker("catalog_autosave", cfg.Catalog.AutosaveInterval, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if saved, err := svc.Autosave(ctx); err != nil {
				logger.Error("catalog autosave failed", zap.Error(err))
			} else if saved {
				logger.Debug("catalog autosaved", zap.Uint64("revision", svc.Revision()))
			}
		})
	}
	if cfg.Catalog.ExportCron != "" {
		err := sched.AddCron("catalog_export", cfg.Catalog.ExportCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if ok, err := svc.ExportFiles(ctx, ""); err != nil {
				logger.Error("scheduled export failed", zap.Error(err))
			} else if !ok {
				logger.Info("scheduled export skipped, another export holds the lock")
			}
		})
		if err != nil {
			logger.Fatal("invalid catalog.export_cron", zap.String("spec", cfg.Catalog.ExportCron), zap.Error(err))
		}
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "catalog_size": svc.Len()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	apirest.Register(r.Group("/api"), apirest.Deps{
		Editor:    svc,
		Scheduler: sched,
		Cache:     c,
		Server:    cfg.Server,
		Security:  cfg.Security,
		Logger:    logger,
	})

	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if _, err := svc.Autosave(ctx); err != nil && !errors.Is(err, editor.ErrNoDatabase) {
		logger.Error("final autosave failed", zap.Error(err))
	}
}

// loadCatalog fills the catalog at startup: the markup file when present,
// then the flat-text overlay, falling back to the last database snapshot.
func loadCatalog(ctx context.Context, svc *editor.Service, cfg config.CatalogConfig, logger *zap.Logger) {
	if _, err := os.Stat(cfg.MarkupPath); err != nil {
		n, err := svc.LoadSnapshot(ctx)
		if err != nil {
			logger.Warn("no markup file and no snapshot; starting empty",
				zap.String("markup_path", cfg.MarkupPath), zap.Error(err))
			return
		}
		logger.Info("catalog restored from snapshot", zap.Int("size", n))
		return
	}
	if _, err := svc.LoadMarkup(ctx, ""); err != nil {
		logger.Fatal("catalog load failed", zap.Error(err))
	}
	if cfg.FlatTextPath == "" {
		return
	}
	if _, err := os.Stat(cfg.FlatTextPath); err != nil {
		logger.Info("no flat-text overlay", zap.String("path", cfg.FlatTextPath))
		return
	}
	res, err := svc.LoadFlatText(ctx, "")
	if err != nil {
		logger.Fatal("flat-text overlay failed", zap.Error(err))
	}
	logger.Info("flat-text overlay applied",
		zap.Int("applied", len(res.Updated)), zap.Int("skipped", len(res.Skipped)))
}
