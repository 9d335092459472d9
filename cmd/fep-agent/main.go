// cmd/fep-agent/main.go
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

	"go.uber.org/zap"

	"fep-agent/internal/api"
	"fep-agent/internal/common/camunda"
	"fep-agent/internal/common/config"
	"fep-agent/internal/common/database"
	"fep-agent/internal/common/logger"
	"fep-agent/internal/common/observability"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}).With(zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting fep-agent...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	}, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := connectBackends(ctx, cfg, zapLog)
	defer b.Close()

	h, err := buildHandlers(cfg, b, obs, log)
	if err != nil {
		zapLog.Fatal("handler setup failed", zap.Error(err))
	}

	ready := b.readyChecks()

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			RetryConfig: &camunda.RetryConfig{
				MaxRetries: 10,
				BaseDelay:  2 * time.Second,
				MaxDelay:   30 * time.Second,
			},
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		ready["zeebe"] = zeebe.HealthCheck
		workers = startWorkers(zeebe, cfg, h, zapLog)
	} else {
		zapLog.Info("camunda disabled, serving HTTP only")
	}

	// --- HTTP API ---
	requestTimeout := config.GetDuration(cfg.Server.WriteTimeout)
	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewRouter(h.services(), api.Options{
			ServiceName:    cfg.App.Name,
			RequestTimeout: requestTimeout,
			Ready:          ready,
		}, log),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: requestTimeout + 10*time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, draining...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("fep-agent stopped gracefully")
}

// connectBackends opens the configured stores. Postgres is required once
// enabled because audit tables are migrated at startup; Redis only backs
// caches, so an unreachable Redis is logged and skipped.
func connectBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) *backends {
	b := &backends{}

	if cfg.Database.Postgres.Enabled {
		err := retryWithBackoff(func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			b.pg = pg
			return nil
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			log.Fatal("postgres failed after retries", zap.Error(err))
		}
		if err := b.pg.Migrate(ctx); err != nil {
			log.Fatal("postgres migration failed", zap.Error(err))
		}
		log.Info("PostgreSQL connected successfully")
	}

	if cfg.Database.Redis.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error { return rdb.Ping(ctx) }, 5, time.Second, log, "Redis connection")
		if err != nil {
			log.Warn("redis unavailable, caches disabled", zap.Error(err))
			_ = rdb.Close()
		} else {
			b.redis = rdb
			log.Info("Redis connected successfully")
		}
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		log.Warn("elasticsearch client unavailable, policy search disabled", zap.Error(err))
	} else {
		b.es = es
	}
	return b
}

func startWorkers(client *camunda.Client, cfg *config.Config, h *handlers, log *zap.Logger) []*camunda.CamundaWorker {
	jobs := h.jobs()
	var started []*camunda.CamundaWorker
	for _, taskType := range taskTypes {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		started = append(started, camunda.NewWorker(client.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, jobs[taskType], log))
	}
	log.Info("workers registered", zap.Int("count", len(started)))
	return started
}
