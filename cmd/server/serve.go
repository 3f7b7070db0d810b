package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/api"
	"github.com/jengzang/webgis-dashboard/internal/chart"
	"github.com/jengzang/webgis-dashboard/internal/dataset"
	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/metrics"
	"github.com/jengzang/webgis-dashboard/internal/middleware"
	"github.com/jengzang/webgis-dashboard/internal/service"
	"github.com/jengzang/webgis-dashboard/internal/session"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := logger.L()
	gin.SetMode(cfg.Server.Mode)

	src, closeSource, err := a.source()
	if err != nil {
		return err
	}
	defer closeSource()

	m := metrics.New()
	palette := cfg.BrandPalette()
	dashboard := service.NewDashboardService(dataset.NewLoader(palette, m), src, palette)

	face, err := chart.FindFace(cfg.Chart.FontPath)
	switch {
	case err == nil:
		dashboard.SetChartFace(face)
	case cfg.Chart.FontPath != "":
		return err
	default:
		log.Warn("no CJK font found, chart endpoint disabled; set chart.font_path", zap.Error(err))
	}

	// 预加载数据, 失败的数据集在请求时重试
	if _, err := dashboard.Snapshot(ctx); err != nil {
		log.Warn("initial dataset load incomplete", zap.Error(err))
	}

	var store session.Store
	if cfg.Session.RedisAddr != "" {
		client, err := session.OpenRedis(ctx, cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		store = session.NewRedisStore(client)
		log.Info("session store: redis", zap.String("addr", cfg.Session.RedisAddr))
	}
	sessions := session.NewManager(session.Options{
		Secret:      cfg.Session.Secret,
		TTL:         cfg.Session.TTL,
		InitialView: cfg.View,
		Palette:     palette,
		Store:       store,
		Metrics:     m,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	scheduler, err := service.NewScheduler(dashboard, sessions, cfg.Data.ReloadCron, cfg.Session.SweepCron)
	if err != nil {
		return err
	}
	if err := scheduler.AddFunc("rate limiter cleanup", "@every 10m", func() { limiter.Cleanup() }); err != nil {
		return err
	}
	scheduler.Start()

	router := api.SetupRouter(api.Dependencies{
		Config:    cfg,
		Dashboard: dashboard,
		Sessions:  sessions,
		Metrics:   m,
		Limiter:   limiter,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Server.Port), zap.String("source", src.Identity()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
