package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/http/api"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/stores"
	service "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/app"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/profile"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
)

const (
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "alpha server exited", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	// Defaults, then the optional ALPHA_CONFIG file, then ALPHA_ env vars.
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	prof, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return err
	}
	log.Info(ctx, "scoring profile loaded", logger.String("version", prof.Version))

	st, err := stores.Open(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error(ctx, "close stores", logger.Error(err))
		}
	}()

	svc := newService(cfg, st, prof, log)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc, log),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

func newService(cfg *config.Config, st *stores.Stores, prof *profile.Profile, log logger.Logger) *service.Service {
	return service.New(st.Results, st.Stats, prof,
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithDedupeTTL(cfg.DedupeTTL),
		service.WithBatchConcurrency(cfg.BatchConcurrency),
		service.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		service.WithBatchHistory(cfg.BatchHistory),
		service.WithRetry(service.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
		}),
	)
}

func newRouter(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) http.Handler {
	return api.NewServer(svc,
		api.WithLogger(log),
		api.WithBatchRatePerMinute(cfg.BatchRatePerMinute),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithCORSOrigins(cfg.CORSOrigins),
	).Router(ctx)
}

// startServiceMetricsUpdater refreshes gauges fed by GetStats until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics polls GetStats, which refreshes the store and
// system gauges as a side effect.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	if n, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(n)
	}
}
