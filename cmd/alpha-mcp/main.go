// Command alpha-mcp serves the scoring operations as MCP tools over
// streamable HTTP.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/stores"
	service "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/app"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

const (
	serverName    = "alpha-scoring-mcp"
	serverVersion = "1.0.0"
	apiKeyEnv     = "ALPHA_MCP_API_KEY"
)

func main() {
	var (
		addr       = flag.String("addr", ":9090", "HTTP listen address")
		mcpPath    = flag.String("path", "/mcp", "HTTP path for the MCP endpoint")
		authHeader = flag.String("auth-header", "X-API-Key", "HTTP header to read the API key from")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, *mcpPath, *authHeader); err != nil {
		logger.Get().Error(ctx, "alpha-mcp exited", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, mcpPath, authHeader string) error {
	log := logger.Get().Named("mcp")
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	prof, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return err
	}
	st, err := stores.Open(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := service.New(st.Results, st.Stats, prof,
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithBatchConcurrency(cfg.BatchConcurrency),
		service.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		service.WithBatchHistory(cfg.BatchHistory),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registry := (&tools{svc: svc}).register(server)

	apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv))
	if apiKey == "" {
		log.Warn(ctx, "no API key configured; MCP endpoint is unauthenticated", logger.String("env", apiKeyEnv))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(server, registry, mcpPath, authHeader, apiKey),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "MCP HTTP server listening", logger.String("addr", addr), logger.String("path", mcpPath))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHandler routes the MCP endpoint plus /health and /tools. A non-empty
// apiKey is required on every route.
func newHandler(server *mcp.Server, registry []toolInfo, mcpPath, authHeader, apiKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withAuth(authHeader, apiKey))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/tools", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tools": registry})
	})
	r.Handle(mcpPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true}))
	return r
}

func withAuth(header, apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(header))
			if key == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					key = strings.TrimSpace(authz[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
