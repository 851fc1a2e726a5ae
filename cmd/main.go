// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campushq/campus-events/internal/auth"
	"github.com/campushq/campus-events/internal/config"
	"github.com/campushq/campus-events/internal/database"
	"github.com/campushq/campus-events/internal/handler"
	"github.com/campushq/campus-events/internal/ledger"
	"github.com/campushq/campus-events/internal/logger"
	"github.com/campushq/campus-events/internal/persist"
	"github.com/campushq/campus-events/internal/publisher"
	"github.com/campushq/campus-events/internal/report"
	"github.com/campushq/campus-events/internal/repository"
	"github.com/campushq/campus-events/internal/scheduler"
	"github.com/campushq/campus-events/internal/service"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 1. Configuration and logging ──────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.Log.Development || cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// ── 2. Persistence backend ────────────────────────────────────────────
	var (
		persister persist.Store = persist.NewNoop()
		fileStore *persist.FileStore
	)
	switch cfg.Persist.Driver {
	case "file":
		fileStore, err = persist.NewFileStore(cfg.Persist.Dir, cfg.Persist.FlushInterval)
		if err != nil {
			zlog.Fatal("file store", zap.Error(err))
		}
		persister = fileStore
		zlog.Info("persisting to JSON snapshots", zap.String("dir", cfg.Persist.Dir))
	case "postgres":
		if err := persist.RunMigrations(cfg.Database.DSN()); err != nil {
			zlog.Fatal("migrations", zap.Error(err))
		}
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			zlog.Fatal("database", zap.Error(err))
		}
		persister = persist.NewPostgresStore(pool)
		zlog.Info("connected to postgres", zap.String("host", cfg.Database.Host))
	default:
		zlog.Info("running memory-only, state will not survive restarts")
	}

	// ── 3. Restore in-memory state ────────────────────────────────────────
	store := repository.NewStore()
	snap, err := persister.Load(ctx)
	if err != nil {
		zlog.Fatal("load snapshot", zap.Error(err))
	}
	dropped := store.Restore(snap.Events, snap.Users, snap.Registrations)
	events, users, regs := store.Counts()
	zlog.Info("state restored",
		zap.Int("events", events),
		zap.Int("users", users),
		zap.Int("registrations", regs),
		zap.Int("orphans_dropped", dropped),
	)

	// ── 4. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(store)
	userRepo := repository.NewUserRepository(store)
	regRepo := repository.NewRegistrationRepository(store)

	led := ledger.New(eventRepo, userRepo, regRepo, persister, ledger.Options{
		AllowUnregisterCompleted: cfg.Events.AllowUnregisterCompleted,
	})

	var pub publisher.Publisher = publisher.NewNoop()
	if cfg.Kafka.Enabled {
		kafkaPub, err := publisher.NewKafka(ctx, cfg.Kafka)
		if err != nil {
			zlog.Warn("kafka unavailable, messages disabled", zap.Error(err))
		} else {
			pub = kafkaPub
			zlog.Info("publishing to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	}
	defer pub.Close()

	eventSvc := service.NewEventService(eventRepo, led, persister, pub)
	userSvc := service.NewUserService(userRepo, eventRepo, led, persister)
	authSvc := auth.NewService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	reporter := report.NewReporter(eventRepo)

	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPassword != "" {
		if err := userSvc.SeedAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			zlog.Fatal("seed admin", zap.Error(err))
		}
	}

	// ── 5. Router ─────────────────────────────────────────────────────────
	r := handler.NewRouter(cfg, authSvc, handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Events:  handler.NewEventHandler(eventSvc),
		Users:   handler.NewUserHandler(userSvc),
		Reports: handler.NewReportHandler(reporter),
	})

	// ── 6. Background workers ─────────────────────────────────────────────
	if cfg.Events.AutoComplete {
		go scheduler.New(eventSvc, cfg.Events.AutoCompleteInterval).Start(ctx)
	}
	if fileStore != nil && cfg.Persist.FlushInterval > 0 {
		go fileStore.Run(ctx)
	}

	// ── 7. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	cancel()

	// Final reconcile so batched backends do not lose the tail.
	ev, us, rg := store.Snapshot()
	if err := persister.Flush(shutdownCtx, &persist.Snapshot{Events: ev, Users: us, Registrations: rg}); err != nil {
		zlog.Error("final flush failed", zap.Error(err))
	}
	if err := persister.Close(); err != nil {
		zlog.Error("close persistence", zap.Error(err))
	}
	zlog.Info("server stopped")
}
