// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adstudio-backend/internal/config"
	"adstudio-backend/internal/handler"
	"adstudio-backend/internal/idempotency"
	"adstudio-backend/internal/logging"
	"adstudio-backend/internal/service"
	"adstudio-backend/internal/storage"
	"adstudio-backend/internal/voices"

	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "json").WithError(err).Fatal("load config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// ── Database ──────────────────────────────────────────────────────────────
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Fail fast rather than accepting webhook traffic we cannot persist.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.WithError(err).Fatal("database ping failed")
	}

	if cfg.WebhookSecret == "" {
		log.Warn("PIPELINE_WEBHOOK_SECRET is empty, every webhook call will be rejected")
	}

	// ── Idempotency (optional) ────────────────────────────────────────────────
	var guard idempotency.Guard
	if cfg.RedisURL != "" {
		g, err := idempotency.NewRedisGuardFromURL(context.Background(), cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, duplicate deliveries will be applied")
		} else {
			defer g.Close()
			guard = g
			log.Info("idempotency guard enabled")
		}
	}

	// ── Services & Handlers ───────────────────────────────────────────────────
	store := storage.NewPostgresStore(db)
	pipelineService := service.NewPipelineService(store, store, log)

	router := handler.NewRouter(handler.RouterConfig{
		Pipelines: &handler.PipelineHandler{
			Service: pipelineService,
			Secret:  cfg.WebhookSecret,
			Guard:   guard,
			Log:     log,
		},
		Voices: &handler.VoicesHandler{
			Voices: voices.NewClient(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, log),
			Log:    log,
		},
		DB:             db,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// ── HTTP Server with timeouts ──────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // voice listing walks up to 5 upstream pages
		IdleTimeout:  60 * time.Second,
	}

	// ── Graceful Shutdown ──────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.Port).Info("pipeline service running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-quit
	log.Info("shutdown signal received, draining requests")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}
	log.Info("server stopped cleanly")
}
