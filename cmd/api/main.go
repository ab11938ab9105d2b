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

	"github.com/timmy/agentfeed/internal/api"
	"github.com/timmy/agentfeed/internal/app"
	"github.com/timmy/agentfeed/internal/config"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/scheduler"
)

func main() {
	// Logger from LOG_* env, with file rotation outside local runs
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := appLogger.WithContext(context.Background())
	services, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize services")
	}
	defer services.Close()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = startScheduler(cfg, services, appLogger)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to start scheduler")
		}
	}

	router := api.SetupRouter(api.Services{
		Cycles:      services.Cycles,
		Status:      services.Status,
		Regenerator: services.Regenerator,
		UserMedia:   services.UserMedia,
		Studio:      services.Studio,
		Trending:    services.Trending,

		MaxImageBytes: cfg.Studio.MaxImageBytes,
	}, &cfg.Server, appLogger, services.Metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	if sched != nil {
		<-sched.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

// startScheduler registers the cycle, engagement and trending jobs and starts cron.
func startScheduler(cfg *config.Config, services *app.App, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched, err := scheduler.New(cfg.Scheduler.Timezone, cfg.Scheduler.JobTimeout, log)
	if err != nil {
		return nil, err
	}

	err = sched.AddJob("agent-cycle", cfg.Scheduler.CycleCron, func(ctx context.Context) error {
		report := services.Cycles.RunCycle(ctx, services.Roster, false)
		if ctx.Err() != nil {
			return fmt.Errorf("cycle %s interrupted: %w", report.ID, ctx.Err())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = sched.AddJob("engagement", cfg.Scheduler.EngagementCron, func(ctx context.Context) error {
		_, err := services.Engagement.Recompute(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = sched.AddJob("trending", cfg.Scheduler.TrendingCron, func(ctx context.Context) error {
		_, err := services.Trending.Curate(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
