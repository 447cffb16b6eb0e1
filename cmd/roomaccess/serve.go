package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/room-access/internal/application"
	"github.com/example/room-access/internal/config"
	httptransport "github.com/example/room-access/internal/http"
	"github.com/example/room-access/internal/logging"
	"github.com/example/room-access/internal/monitor"
	"github.com/example/room-access/internal/persistence/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.dsn != "" {
				cfg.DatabaseDSN = opts.dsn
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, backend, err := storage.OpenAndMigrate(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open storage", zap.String("backend", string(backend)), zap.Error(err))
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", zap.Error(cerr))
		}
	}()
	logger.Info("storage ready", zap.String("backend", string(backend)))

	app, err := newApp(cfg, store, logger)
	if err != nil {
		return err
	}

	if err := app.pruner.Start(ctx); err != nil {
		return err
	}
	defer app.pruner.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-app.pruner.Failures():
				logger.Warn("session pruning failed", zap.Error(err))
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", zap.Error(err))
		}
	}()

	logger.Info("room access API listening", zap.String("addr", app.server.Addr))
	if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", zap.Error(err))
		return err
	}
	return nil
}

// app is the wired process: the HTTP server and its background pruner.
type app struct {
	server *http.Server
	pruner *monitor.Monitor
}

func newApp(cfg config.Config, store storage.Store, logger *zap.Logger) (*app, error) {
	now := time.Now
	tokenGenerator := func() string { return randomHex(32) }

	authService := application.NewAuthServiceWithLogger(store, store, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	issuer, err := application.NewTokenIssuer(cfg.SessionSecret, cfg.TokenIssuer, cfg.AccessTokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("configure token issuer: %w", err)
	}
	resolver := application.NewIdentityResolver(authService, issuer, store, logger)
	accessService := application.NewAccessServiceWithLogger(store, logger)
	roomService := application.NewRoomServiceWithLogger(store, nil, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        httptransport.NewAuthHandler(authService, logger),
		Tokens:      httptransport.NewTokenHandler(issuer, logger),
		Access:      httptransport.NewAccessHandler(accessService, logger),
		Rooms:       httptransport.NewRoomHandler(roomService, logger),
		Resolver:    resolver,
		Health:      store,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	return &app{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		pruner: monitor.New("session-prune", cfg.SessionPruneInterval, authService.PruneExpiredSessions, logger),
	}, nil
}
