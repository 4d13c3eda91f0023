package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waitlist-system/config"
	"waitlist-system/handlers"
	_ "waitlist-system/migrations"
	"waitlist-system/monitoring"
	"waitlist-system/security"
	"waitlist-system/services"
	"waitlist-system/utils"
)

func Start() error {
	app := pocketbase.New()

	cfg := config.LoadConfig()

	redisClient, err := utils.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}

	// Process-wide realtime connection; replaces any implicit module-level
	// socket with an explicit init/teardown lifecycle.
	broadcaster := services.NewBroadcaster(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		store := services.NewEntryStore(app.DB())
		settings := services.NewSettingsStore(app.DB(), cfg.DefaultSettings())
		customers := services.NewCustomerStore(app.DB())
		cache := services.NewMetricsCache(redisClient, cfg.MetricsCacheTTL)

		queueService := services.NewQueueService(store, broadcaster, settings, customers, cache)
		queueHandler := handlers.NewQueueHandler(app, queueService)
		limiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)

		if cfg.EnableMetrics {
			monitor := monitoring.NewMonitor(app.DB(), cfg.CollectInterval)
			go monitor.Run(ctx)

			se.Router.GET("/metrics", func(e *core.RequestEvent) error {
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		g := se.Router.Group("/api/waitlist")
		g.Bind(apis.RequireAuth())
		g.BindFunc(limiter.Middleware())

		g.POST("/entries", queueHandler.CreateEntry)
		g.POST("/entries/{entryId}/call", queueHandler.CallEntry)
		g.POST("/entries/{entryId}/seat", queueHandler.SeatEntry)
		g.POST("/entries/{entryId}/cancel", queueHandler.CancelEntry)
		g.POST("/entries/{entryId}/no-show", queueHandler.NoShowEntry)
		g.GET("/queue", queueHandler.GetQueue)
		g.GET("/metrics", queueHandler.GetMetrics)

		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		slog.Info("waitlist routes registered")

		return se.Next()
	})

	app.OnTerminate().BindFunc(func(te *core.TerminateEvent) error {
		slog.Info("shutting down waitlist engine")
		cancel()
		broadcaster.Close()
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close failed", "error", err)
		}
		return te.Next()
	})

	return app.Start()
}
