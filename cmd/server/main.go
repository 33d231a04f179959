package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"personal-tracker/internal/config"
	"personal-tracker/internal/handlers"
	"personal-tracker/internal/jobs"
	"personal-tracker/internal/logging"
	"personal-tracker/internal/sessions"
	"personal-tracker/internal/storage"
	"personal-tracker/internal/tracker"
	"personal-tracker/web"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	db, err := storage.Open(ctx, storage.Options{Dialect: storage.Dialect(cfg.DBDriver), DSN: cfg.DSN()})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.WithField("driver", db.Dialect()).Info("Database ready")

	svc := tracker.NewService(db, logger)
	if err := bootstrapAdmin(ctx, svc, cfg, logger); err != nil {
		return err
	}

	store, closeStore, err := openSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	janitor, err := jobs.NewSessionJanitor(store, logger, cfg.SessionCleanupSchedule)
	if err != nil {
		return err
	}
	janitor.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		janitor.Stop(stopCtx)
	}()

	templates, err := fs.Sub(web.TemplatesFS, "templates")
	if err != nil {
		return err
	}
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return err
	}

	h, err := handlers.NewHandlers(svc, store, templates, logger, handlers.Options{
		SecureCookie:    cfg.SecureCookie,
		SessionDuration: cfg.SessionDuration,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, static),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func setupRouter(h *handlers.Handlers, static fs.FS) http.Handler {
	return h.Router(static)
}

// openSessionStore returns the configured session store and a function releasing it.
func openSessionStore(ctx context.Context, cfg *config.Config, db *storage.DB) (sessions.Store, func(), error) {
	if cfg.SessionBackend != "redis" {
		return db.Sessions(), func() {}, nil
	}
	client, err := sessions.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return sessions.NewRedisStore(client), func() { _ = client.Close() }, nil
}

// bootstrapAdmin creates ADMIN_USER when no account exists yet.
func bootstrapAdmin(ctx context.Context, svc *tracker.Service, cfg *config.Config, logger *logrus.Logger) error {
	if cfg.AdminUser == "" {
		return nil
	}
	count, err := svc.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := svc.Register(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.WithField("username", cfg.AdminUser).Info("Admin user created")
	return nil
}
