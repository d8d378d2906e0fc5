package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"storefront-go/internal/app"
	"storefront-go/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to JSON config file (optional; environment variables apply either way)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load and validate configuration before serving anything; a missing
	// value fails here, not on the first login attempt.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse log level")
	}
	logger = logger.Level(level)

	application := app.New(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		logger.Info().Msg("Shutdown signal received, initiating graceful shutdown...")
		if err := application.Stop(ctx); err != nil {
			logger.Error().Err(err).Msg("Error during graceful shutdown")
		}
		cancel()
	}()

	if err := application.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Application failed to start")
	}

	<-ctx.Done()
	logger.Info().Msg("Application has stopped.")
}
