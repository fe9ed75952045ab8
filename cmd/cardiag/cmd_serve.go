package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrhapile/car-diagnoser/internal/catalog"
	"github.com/mrhapile/car-diagnoser/internal/logging"
	"github.com/mrhapile/car-diagnoser/internal/metrics"
	"github.com/mrhapile/car-diagnoser/internal/server"
	"github.com/mrhapile/car-diagnoser/pkg/engine"
	"github.com/mrhapile/car-diagnoser/pkg/rules"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Starts the HTTP API: diagnosis, the symptom vocabulary, the vehicle
catalog and Prometheus metrics. With rules.watch enabled the rules file is
reloaded on change; a rejected reload keeps the previous rules active.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	kb, err := loadKnowledgeBase(cfg.Rules)
	if err != nil {
		return err
	}
	store := rules.NewStore(kb)
	m := metrics.New()
	m.SetRulesLoaded(kb.Len())
	logger.Info("knowledge base loaded",
		zap.String("version", kb.Version()),
		zap.Int("rules", kb.Len()),
		zap.Int("symptoms", len(kb.Symptoms())),
	)

	if cfg.Rules.Watch {
		w, err := rules.NewWatcher(cfg.Rules.Path, store, logger)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		w.OnReload = func(_ *rules.KnowledgeBase, err error) {
			m.ObserveRulesReload(err, store.Load().Len())
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("rules watcher stopped", zap.Error(err))
			}
		}()
	}

	eng, err := engine.New(store)
	if err != nil {
		return err
	}

	st, err := catalog.Open(cfg.Catalog.DBPath, logger.Named("catalog"))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	srv, err := server.NewServer(server.Deps{
		Engine:  eng,
		Catalog: st,
		Updater: newCatalogUpdater(cfg.Catalog, st, logger),
		Metrics: m,
		Logger:  logger.Named("http"),
	}, &server.Config{Host: cfg.Server.Host, Port: cfg.Server.Port})
	if err != nil {
		return err
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
