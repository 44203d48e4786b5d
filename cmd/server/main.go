package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/tablepos/internal/backoffice"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/catalog"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/kiwari-pos/tablepos/internal/config"
	"github.com/kiwari-pos/tablepos/internal/database"
	"github.com/kiwari-pos/tablepos/internal/events"
	mw "github.com/kiwari-pos/tablepos/internal/middleware"
	"github.com/kiwari-pos/tablepos/internal/receipt"
	"github.com/kiwari-pos/tablepos/internal/router"
	"github.com/kiwari-pos/tablepos/internal/service"
	"github.com/kiwari-pos/tablepos/internal/tablestate"
	"github.com/kiwari-pos/tablepos/internal/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis backs the table mirror and the catalog cache.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	// Catalog and transaction collaborators: the remote back office when
	// configured, otherwise the local ledger database.
	var (
		source   catalog.Source
		recorder checkout.Recorder
	)
	if cfg.BackofficeURL != "" {
		client := backoffice.New(cfg.BackofficeURL, cfg.JWTSecret, cfg.BackofficeTimeout, logger)
		source, recorder = client, client
		logger.Info("using remote back office", zap.String("url", cfg.BackofficeURL))
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		source = service.NewCatalogService(database.New(pool))
		recorder = service.NewTransactionService(pool, func(db database.DBTX) service.TransactionStore {
			return database.New(db)
		})
		logger.Info("using local ledger database")
	}

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	carts := cart.NewRegistry(tablestate.NewRedisAdapter(rdb, logger),
		cart.WithObserver(events.CartObserver(hub)),
		cart.WithLogger(logger))

	ticker, err := events.StartTicker(time.Local, carts, hub)
	if err != nil {
		return err
	}
	defer ticker.Stop()

	var mailer *receipt.Mailer
	if cfg.SMTPHost != "" {
		mailer = receipt.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	mw.InitMetrics()

	deps := router.Deps{
		Carts:    carts,
		Catalog:  catalog.NewCached(source, rdb, logger),
		Checkout: checkout.NewService(recorder, logger, events.TransactionAccepted(hub)),
		Renderer: receipt.NewBitmapRenderer(receipt.DefaultColumns, logger),
		Hub:      hub,
		Logger:   logger,
	}
	if mailer != nil {
		deps.Mailer = mailer
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
