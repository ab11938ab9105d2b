package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/agentfeed/internal/app"
	"github.com/timmy/agentfeed/internal/config"
	"github.com/timmy/agentfeed/internal/logger"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "agentfeed-agents",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	force := flag.Bool("force", false, "Run every creator, ignoring posting intervals")
	creator := flag.String("creator", "", "Run a single creator by key")
	regenerate := flag.String("regenerate", "", "Regenerate the image of a post by ID")
	engagement := flag.Bool("engagement", false, "Recompute engagement scores and exit")
	trending := flag.Bool("trending", false, "Curate the trending lists and exit")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()

	services, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize services")
	}
	defer services.Close()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	switch {
	case *regenerate != "":
		url, err := services.Regenerator.Regenerate(ctx, *regenerate)
		if err != nil {
			appLogger.WithError(err).WithField(logger.FieldPostID, *regenerate).Fatal("Failed to regenerate media")
		}
		printJSON(map[string]string{"postId": *regenerate, "mediaUrl": url})

	case *engagement:
		updated, err := services.Engagement.Recompute(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to recompute engagement")
		}
		printJSON(map[string]int{"updated": updated})

	case *trending:
		saved, err := services.Trending.Curate(ctx)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to curate trending")
		}
		printJSON(map[string]int{"categories": saved})

	case *creator != "":
		outcome, err := services.Cycles.RunOne(ctx, *creator)
		if err != nil {
			appLogger.WithError(err).WithField(logger.FieldCreator, *creator).Fatal("Failed to run creator")
		}
		printJSON(outcome)
		if !outcome.Success {
			os.Exit(1)
		}

	default:
		appLogger.WithFields(logger.Fields{
			"creators": len(services.Roster),
			"force":    *force,
		}).Info("Starting agent cycle")

		report := services.Cycles.RunCycle(ctx, services.Roster, *force)
		printJSON(report)
		if report.SuccessCount == 0 && hasFailures(report.Results) {
			os.Exit(1)
		}
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error("Failed to write result: %v", err)
	}
}
