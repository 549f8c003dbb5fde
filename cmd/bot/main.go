package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"belleza/internal/bot"
	"belleza/internal/config"
	"belleza/internal/database"
	"belleza/internal/domain"
	"belleza/internal/events"
	"belleza/internal/logging"
	"belleza/internal/metrics"
	"belleza/internal/repository"
	"belleza/internal/service"
	"belleza/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
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

	tenantID := cfg.Bot.TenantID
	if cfg.Seed.Path != "" {
		seeded, err := store.Seed(ctx, cfg.Seed.Path)
		if err != nil {
			return err
		}
		if tenantID == 0 {
			tenantID = seeded
		}
	}
	cfg.Bot.TenantID = tenantID

	sessions := buildSessionRepository(ctx, cfg, &logger)

	eventBus := events.NewEventBus()
	if cfg.Notifier.WebhookURL != "" {
		notifier := worker.NewNotifier(cfg.Notifier, logging.Component(&logger, "notifier"))
		notifier.SubscribeTo(eventBus)
		go notifier.Start(ctx)
	}

	availability := service.NewAvailabilityService(store, &logger)
	turn := service.NewTurnService(store, availability, &logger)
	booker := service.NewBookingService(store, availability, eventBus, &logger)

	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return err
	}
	tg.Debug = cfg.Telegram.Debug

	gateway := bot.NewBot(&telegramClient{tg}, cfg.Bot, sessions, store, availability, turn, booker,
		logging.Component(&logger, "bot"))
	gateway.Start(ctx)
	return nil
}

// telegramClient adapts the library client to the gateway's interface.
type telegramClient struct {
	*tgbotapi.BotAPI
}

func (c *telegramClient) GetSelf() tgbotapi.User { return c.Self }

// buildSessionRepository prefers redis with an in-memory failover; without
// redis configured, sessions are memory-only.
func buildSessionRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(cfg.Redis.SessionTTL) * time.Second
	memory := repository.NewMemorySessionRepository(ttl)

	if !cfg.Redis.Enabled {
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	primary := repository.NewRedisSessionRepository(client, ttl)
	if err := primary.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable at startup, sessions degrade to memory until it recovers")
	}
	return repository.NewFailoverSessionRepository(primary, memory, logger)
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
	logger := base.With().Str("component", "bot-main").Logger()
	return cfg, logger, closer, nil
}
