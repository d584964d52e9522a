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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"guffcircle/internal/backend"
	"guffcircle/internal/config"
	"guffcircle/internal/session"
	"guffcircle/internal/telemetry"
	"guffcircle/internal/views"
	"guffcircle/internal/web"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, "guff-circle")
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	tbl, err := views.Table(cfg.BaseURL)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	srv := &web.Server{
		Table:    tbl,
		Store:    store,
		Firebase: cfg.Firebase,
		Log:      logger,
	}

	if offline {
		logger.Warn("running offline, sign-in disabled")
	} else {
		var opts []option.ClientOption
		if cfg.ServiceAccountFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountFile))
		}
		b, err := backend.Default(ctx, cfg.Firebase, opts...)
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()
		srv.Verifier = b.Auth
		logger.Info("backend ready", zap.String("project", cfg.Firebase.ProjectID))
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()
	logger.Info("guff-circle started",
		zap.String("addr", cfg.Addr),
		zap.String("base", cfg.BaseURL),
		zap.String("sessions", cfg.SessionBackend),
	)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("guff-circle stopped cleanly")
	return nil
}

func openStore(cfg config.Config) (session.Store[session.Session], func() error, error) {
	switch cfg.SessionBackend {
	case "redis":
		client, err := session.DialRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore[session.Session](client, cfg.SessionTTL), client.Close, nil
	case "sqlite":
		s, err := session.OpenSQLite[session.Session](cfg.SQLitePath, cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return session.NewMemoryStore[session.Session](cfg.SessionTTL), func() error { return nil }, nil
	}
}
