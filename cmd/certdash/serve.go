package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"certdash/analytics"
	"certdash/dashboard"
	"certdash/logging"
	"certdash/metrics"
	"certdash/views"
	"certdash/www"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log, Version)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	m := metrics.New()
	api := analytics.NewClient(cfg.API.BaseURL, cfg.API.Timeout, analytics.WithObserver(m.Upstream()))

	reg := dashboard.NewRegistry()
	if err := views.Register(reg); err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	if _, ok := reg.Lookup(cfg.Dashboard.DefaultView); !ok {
		return fmt.Errorf("dashboard.default_view %q is not a registered view", cfg.Dashboard.DefaultView)
	}

	sessions := dashboard.NewSessions(dashboard.Config{
		App:      cfg,
		Views:    reg,
		API:      api,
		Logger:   log.Named("dashboard"),
		Observer: m.Observer(),
	})
	sessions.Start()
	defer sessions.Stop()

	handler, stopWeb := www.NewRouter(www.Deps{
		Config:   cfg,
		Sessions: sessions,
		Views:    reg,
		Logger:   log.Named("www"),
		Metrics:  m.Handler(),
		Version:  Version,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("web server listening", zap.String("addr", addr), zap.String("api", cfg.API.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		stopWeb()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}
