// Package main is the entry point for the registracion background worker.
// It relays the transactional outbox to Kafka.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registracion/internal/config"
	"registracion/internal/infrastructure/messaging/kafka"
	"registracion/internal/infrastructure/storage/postgres"
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

	log.Info("starting registracion worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.ApplicationName = cfg.Database.ApplicationName + "-worker"
	poolCfg.MaxConns = 4
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	var handler postgres.OutboxHandler = logHandler{log: log.WithComponent("outbox")}
	if cfg.KafkaEnabled() {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warnw("failed to close kafka writer", "error", err)
			}
		}()
		handler = publisher
		log.Infow("relaying outbox to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		log.Warn("no kafka brokers configured, outbox messages are only logged")
	}

	reg := prometheus.NewRegistry()
	worker := NewWorker(
		postgres.NewOutboxRelay(postgres.NewTxManager(pool), cfg.Outbox.BatchSize, handler),
		metrics.New(reg),
		cfg.Outbox.PollInterval,
		log,
	)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.WorkerAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	if metricsServer != nil {
		_ = metricsServer.Close()
	}
	log.Info("worker stopped")
}

// Worker polls the outbox and sweeps exhausted messages into the DLQ.
type Worker struct {
	relay        *postgres.OutboxRelay
	metrics      *metrics.Metrics
	pollInterval time.Duration
	log          *logger.Logger
}

func NewWorker(relay *postgres.OutboxRelay, m *metrics.Metrics, pollInterval time.Duration, log *logger.Logger) *Worker {
	return &Worker{
		relay:        relay,
		metrics:      m,
		pollInterval: pollInterval,
		log:          log.WithComponent("worker"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(1 * time.Hour)
	defer dlqTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.relayOnce(ctx)
		case <-dlqTicker.C:
			w.sweepDLQ(ctx)
		}
	}
}

func (w *Worker) relayOnce(ctx context.Context) {
	res, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	w.metrics.RecordRelay(res.Delivered, res.Failed)
	if res.Delivered+res.Failed > 0 {
		w.log.Debugw("processed outbox batch", "delivered", res.Delivered, "failed", res.Failed)
	}
}

func (w *Worker) sweepDLQ(ctx context.Context) {
	moved, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("failed to move messages to DLQ", "error", err)
		return
	}
	if moved > 0 {
		w.log.Warnw("moved exhausted outbox messages to DLQ", "count", moved)
	}
}

// logHandler stands in for Kafka when no brokers are configured.
type logHandler struct {
	log *logger.Logger
}

func (h logHandler) Handle(_ context.Context, msg *postgres.OutboxMessage) error {
	h.log.Infow("outbox event",
		"message_id", msg.ID,
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
	)
	return nil
}
