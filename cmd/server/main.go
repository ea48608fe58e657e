// Package main is the entry point for the registracion API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registracion/internal/config"
	"registracion/internal/domain/auth"
	"registracion/internal/domain/operation"
	"registracion/internal/domain/weighing"
	v1 "registracion/internal/infrastructure/http/v1"
	"registracion/internal/infrastructure/storage/postgres"
	"registracion/internal/infrastructure/storage/postgres/erp_repo"
	"registracion/internal/infrastructure/storage/postgres/registration_repo"
	"registracion/pkg/logger"
	"registracion/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting registracion server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, poolConfig(cfg.Database, cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager, cfg.Audit.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	outbox := postgres.NewOutboxPublisher(txManager)

	// --- Repositories ---
	weighingRepo := registration_repo.NewWeighingRepo(txManager)
	labelRepo := registration_repo.NewLabelRepo(txManager)
	operationRepo := registration_repo.NewOperationRepo(txManager)
	userRepo := registration_repo.NewUserRepo(txManager)

	// --- Services ---
	opCfg := operation.ServiceConfig{
		Repo:        operationRepo,
		Supervisors: auth.NewSupervisorVerifier(userRepo),
		TxManager:   txManager,
		Audit:       auditService,
		Events:      outbox,
		Tolerance: operation.Tolerance{
			RootPct:         cfg.Weighing.ToleranceRootPct,
			IntermediatePct: cfg.Weighing.ToleranceIntermediatePct,
		},
	}
	if cfg.Database.ERPURL != "" {
		erpPool, err := postgres.NewPool(ctx, poolConfig(cfg.Database, cfg.Database.ERPURL))
		if err != nil {
			// The technical sheet is decorative; the detail view works without it.
			log.Warnw("ERP database unavailable, technical sheets disabled", "error", err)
		} else {
			defer erpPool.Close()
			opCfg.Sheets = erp_repo.NewTechnicalSheetRepo(erpPool)
		}
	}
	operationService := operation.NewService(opCfg)

	weighingService := weighing.NewService(weighing.ServiceConfig{
		Repo:              weighingRepo,
		Labels:            labelRepo,
		TxManager:         txManager,
		Audit:             auditService,
		Events:            outbox,
		LabelsFromCounter: cfg.Weighing.LabelsFromCounter,
	})

	tol := operationService.Tolerance()
	log.Infow("services initialized",
		"tolerance_root_pct", tol.RootPct,
		"tolerance_intermediate_pct", tol.IntermediatePct,
		"labels_from_counter", cfg.Weighing.LabelsFromCounter,
	)

	// --- Metrics ---
	routerCfg := v1.RouterConfig{
		Logger:       log,
		JWTValidator: auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret)),
		Weighing:     weighingService,
		Operations:   operationService,
		DB:           pool,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(reg)
		routerCfg.Metrics = m
		routerCfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		routerCfg.MetricsPath = cfg.Metrics.Path
		go reportPoolStats(ctx, pool, m)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      v1.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func poolConfig(db config.DatabaseConfig, dsn string) postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(dsn)
	pc.ApplicationName = db.ApplicationName
	pc.MaxConns = db.MaxConns
	pc.MinConns = db.MinConns
	pc.MaxConnLifetime = db.MaxConnLifetime
	pc.MaxConnIdleTime = db.MaxConnIdleTime
	return pc
}

func reportPoolStats(ctx context.Context, pool *postgres.Pool, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := pool.Stats()
			m.SetPoolStats(s.TotalConns, s.AcquiredConns, s.IdleConns)
		}
	}
}
