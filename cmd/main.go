// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/Shivanand-hulikatti/explore-events/internal/database"
	"github.com/Shivanand-hulikatti/explore-events/internal/handler"
	"github.com/Shivanand-hulikatti/explore-events/internal/logger"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/Shivanand-hulikatti/explore-events/internal/service"
	"github.com/Shivanand-hulikatti/explore-events/internal/stats"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	decimal.MarshalJSONWithoutQuotes = true

	// ── 1. Configuration and logging ──────────────────────────────────────
	envOnly, _ := strconv.ParseBool(os.Getenv("EWM_ENV_ONLY"))
	cfg, err := config.Load(getEnv("EWM_CONFIG", "config/config.yaml"), envOnly)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// ── 2. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("connected to PostgreSQL")

	// ── 3. Stats collaborator ─────────────────────────────────────────────
	var statsClient stats.Client = stats.NewHTTPClient(cfg.Stats.BaseURL, cfg.Stats.Timeout)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, stats cache will fall through", zap.Error(err))
		}
		statsClient = stats.NewCachedClient(statsClient, stats.NewRedisStore(rdb), cfg.Redis.TTL, cfg.Stats.Timeout, log)
	}
	views := stats.NewAggregator(statsClient, cfg.App.Name, cfg.Stats.Skew, cfg.Stats.Timeout, log)

	// ── 4. Wire up layers ────────────────────────────────────────────────
	store := repository.New(pool)
	h := handler.New(handler.Services{
		Events:        service.NewEventService(store, views, cfg.Events, log),
		Participation: service.NewParticipationService(store, cfg.Participation, log),
		Users:         service.NewUserService(store, log),
		Categories:    service.NewCategoryService(store, log),
		Comments:      service.NewCommentService(store, log),
		Compilations:  service.NewCompilationService(store, views, log),
	}, store, log)

	// ── 5. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(log))     // structured access log
	r.Use(handler.CORS)

	h.Routes(r)

	// ── 6. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.HTTPAddr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until SIGINT, SIGTERM or a listener failure.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	views.Wait()
	log.Info("server stopped")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
