package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/henrycs/mockserver/internal/config"
	"github.com/henrycs/mockserver/internal/engine"
	"github.com/henrycs/mockserver/internal/handler"
	"github.com/henrycs/mockserver/internal/loader"
	"github.com/henrycs/mockserver/internal/log"
	"github.com/henrycs/mockserver/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default configs/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, logLevel, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Account ledger, seeded once for the life of the process.
	ledger := store.NewLedgerStore(store.AccountInfo{
		Account:   cfg.Server.AccountID,
		Available: cfg.Server.AccountCapital,
		Total:     cfg.Server.AccountCapital,
	})
	history := store.NewHistoryStore()
	registry := engine.NewRegistry(logger)
	eng := engine.New(registry, ledger, history, logger)

	caseLoader := loader.NewLoader(cfg.Server.CaseDir, logger)
	catalog, err := loader.NewCatalog(cfg.Server.CaseDir, logger)
	if err != nil {
		logger.Fatal("failed to scan case directory",
			zap.String("dir", cfg.Server.CaseDir),
			zap.Error(err),
		)
	}

	// Hot-reload the log level on config file changes.
	err = config.Watch(*configPath, func(next *config.Config) {
		var lvl zapcore.Level
		if err := lvl.Set(strings.ToLower(next.Logging.Level)); err != nil {
			logger.Warn("ignoring invalid log level on reload", zap.String("level", next.Logging.Level))
			return
		}
		logLevel.SetLevel(lvl)
		logger.Info("log level updated", zap.String("level", next.Logging.Level))
	}, func(err error) {
		logger.Warn("config reload rejected", zap.Error(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", zap.Error(err))
	}

	router := handler.NewRouter(eng, caseLoader, catalog,
		cfg.Server.AccessToken, cfg.Server.AccountID, logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("mock trade server starting",
			zap.String("addr", addr),
			zap.String("account", cfg.Server.AccountID),
			zap.String("case_dir", cfg.Server.CaseDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return catalog.Watch(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
