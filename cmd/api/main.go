package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"belleza/internal/api"
	"belleza/internal/config"
	"belleza/internal/database"
	"belleza/internal/events"
	"belleza/internal/export"
	"belleza/internal/logging"
	"belleza/internal/metrics"
	"belleza/internal/service"
	"belleza/internal/worker"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	metrics.Register()

	store, err := database.NewStore(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed.Path != "" {
		if _, err := store.Seed(ctx, cfg.Seed.Path); err != nil {
			return err
		}
	}

	eventBus := events.NewEventBus()
	if cfg.Notifier.WebhookURL != "" {
		notifier := worker.NewNotifier(cfg.Notifier, logging.Component(&logger, "notifier"))
		notifier.SubscribeTo(eventBus)
		go notifier.Start(ctx)
	}

	availability := service.NewAvailabilityService(store, &logger)
	turn := service.NewTurnService(store, availability, &logger)
	booker := service.NewBookingService(store, availability, eventBus, &logger)
	reporter := export.NewReporter(store, "exports", logging.Component(&logger, "export"))

	server := api.NewServer(cfg.API, store, availability, turn, booker, reporter, logging.Component(&logger, "api"))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	base, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := base.With().Str("component", "api-main").Logger()
	return cfg, logger, closer, nil
}
