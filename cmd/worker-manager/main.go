// cmd/worker-manager/main.go
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

	awsx "matchmaking-workers/internal/common/aws"
	"matchmaking-workers/internal/common/camunda"
	"matchmaking-workers/internal/common/config"
	"matchmaking-workers/internal/common/database"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/observability"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/pkg/registry"

	smd "matchmaking-workers/internal/workers/communication/send-match-digest"
	cc "matchmaking-workers/internal/workers/matching/calculate-compatibility"
	psf "matchmaking-workers/internal/workers/matching/parse-search-filters"
	sp "matchmaking-workers/internal/workers/matching/search-profiles"
)

const readinessTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Backing stores ---
	backends, err := connectBackends(ctx, cfg, zapLog)
	if err != nil {
		_ = zeebe.Close()
		zapLog.Fatal("backing store connection failed", zap.Error(err))
	}
	deps := append([]database.Dependency{zeebe}, backends.dependencies()...)

	pipeline, err := buildPipeline(cfg, backends, log)
	if err != nil {
		_ = database.CloseAll(deps...)
		zapLog.Fatal("candidate pipeline setup failed", zap.Error(err))
	}

	rankerOpts := cfg.Matching.ToRankerOptions()
	rankerOpts.Logger = log
	ranker := matching.NewRanker(pipeline.lookup, pipeline.provider, rankerOpts)
	effective := ranker.Options()
	zapLog.Info("ranker configured",
		zap.Int("scoreThreshold", effective.Scoring.ScoreThreshold),
		zap.String("reasonThresholdMode", string(effective.Scoring.ReasonThresholdMode)),
		zap.Int("defaultLimit", effective.DefaultLimit),
		zap.Int("maxLimit", effective.MaxLimit),
		zap.Int("overFetchFactor", effective.OverFetchFactor),
		zap.Int("maxFetch", effective.MaxFetch),
	)

	// --- Workers ---
	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.StartWorker(
			zeebe.Zeebe(), taskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, log))
	}
	timeoutOf := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	if config.IsWorkerEnabled(cfg, psf.TaskType) {
		start(psf.TaskType, psf.NewHandler(&psf.Config{
			DefaultLimit: cfg.Matching.DefaultLimit,
			MaxLimit:     cfg.Matching.MaxLimit,
			Timeout:      timeoutOf(psf.TaskType),
		}, log))
	}

	if config.IsWorkerEnabled(cfg, sp.TaskType) {
		start(sp.TaskType, sp.NewHandler(&sp.Config{
			Timeout: timeoutOf(sp.TaskType),
		}, ranker, obs, log))
	}

	if config.IsWorkerEnabled(cfg, cc.TaskType) {
		start(cc.TaskType, cc.NewHandler(&cc.Config{
			Scoring: cfg.Matching.ToScoringConfig(),
			Timeout: timeoutOf(cc.TaskType),
		}, pipeline.lookup, log))
	}

	if config.IsWorkerEnabled(cfg, smd.TaskType) {
		sesClient, err := awsx.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		snsClient, err := awsx.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		start(smd.TaskType, smd.NewHandler(&smd.Config{
			EmailEnabled: cfg.Notifications.Email.Enabled,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			FromEmail:    cfg.Notifications.Email.FromEmail,
			HighScoreSMS: cfg.Notifications.SMS.HighScoreSMS,
			DigestSize:   cfg.Notifications.DigestSize,
			Timeout:      timeoutOf(smd.TaskType),
		}, backends.postgresStore(log), sesClient, snsClient, log))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))
	checkRegistry(cfg.App.RegistryPath, workers, zapLog)

	// --- Health & Metrics Server ---
	var srv *http.Server
	if cfg.Metrics.Enabled {
		srv = newHealthServer(cfg.Metrics.ListenAddr, func(ctx context.Context) error {
			return database.PingAll(ctx, readinessTimeout, deps...)
		})
		go func() {
			zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Metrics.ListenAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error stopping health server", zap.Error(err))
		}
	}
	if err := database.CloseAll(deps...); err != nil {
		zapLog.Error("Error closing connections", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkRegistry warns about running workers the activity registry does not
// describe. A missing registry is not fatal.
func checkRegistry(path string, workers []*camunda.Worker, log *zap.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry is invalid", zap.String("path", path), zap.Error(err))
		return
	}
	for _, w := range workers {
		if reg.Find(w.TaskType()) == nil {
			log.Warn("worker has no activity registry entry", zap.String("taskType", w.TaskType()))
		}
	}
}
