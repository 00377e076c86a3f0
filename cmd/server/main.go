package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/janisto/admin-probe/internal/config"
	applog "github.com/janisto/admin-probe/internal/platform/logging"
	"github.com/janisto/admin-probe/internal/platform/metrics"
	appmiddleware "github.com/janisto/admin-probe/internal/platform/middleware"
	"github.com/janisto/admin-probe/internal/platform/postgres"
	"github.com/janisto/admin-probe/internal/platform/provider"
	"github.com/janisto/admin-probe/internal/platform/respond"
	"github.com/janisto/admin-probe/internal/routes"
	healthsvc "github.com/janisto/admin-probe/internal/service/health"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const metricsPath = "/metrics"

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(ctx, "invalid configuration", err)
	}

	lister, err := provider.NewLister(ctx, cfg)
	if err != nil {
		applog.LogFatal(ctx, "failed to initialize user lister", err, zap.String("provider", cfg.Provider))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps := routes.Deps{
		Checker: healthsvc.NewChecker(lister, healthsvc.WithObserver(metrics.New(reg))),
	}

	var db *postgres.DB
	if cfg.DatabaseURL != "" {
		db, err = postgres.Connect(ctx, postgres.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			applog.LogFatal(ctx, "failed to configure database pool", err)
		}
		defer db.Close()
		deps.DB = db
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, deps, reg),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.Provider),
			zap.String("env", cfg.AppEnv),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(ctx, "listen failed", err, zap.String("addr", srv.Addr))
		if db != nil {
			db.Close()
		}
		os.Exit(1)
	case <-stop:
		applog.LogInfo(ctx, "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(ctx, "server exited")
}

func newRouter(cfg *config.Config, deps routes.Deps, gatherer prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(routes.DocsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.CORSOrigins),
		appmiddleware.RequestID(),
		// RealIP trusts X-Forwarded-For; only deploy behind a proxy that sets it.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)

	router.Method(http.MethodGet, metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	api := routes.NewAPI(router, Version)
	routes.Register(api, deps)
	return router
}
