package bot

import (
	"context"
	"time"

	"belleza/internal/config"
	"belleza/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramAPI is the slice of the Telegram client the gateway uses, kept
// narrow so tests can substitute a fake.
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
}

// Bot is a conversational booking gateway for a single tenant. All
// conversation state lives in the session repository; the bot itself is
// stateless and restart-safe.
type Bot struct {
	api          TelegramAPI
	cfg          config.BotConfig
	sessions     domain.SessionRepository
	store        domain.Store
	availability domain.Availability
	turn         domain.TurnPicker
	booker       domain.Booker
	logger       zerolog.Logger
}

func NewBot(
	api TelegramAPI,
	cfg config.BotConfig,
	sessions domain.SessionRepository,
	store domain.Store,
	availability domain.Availability,
	turn domain.TurnPicker,
	booker domain.Booker,
	logger zerolog.Logger,
) *Bot {
	return &Bot{
		api:          api,
		cfg:          cfg,
		sessions:     sessions,
		store:        store,
		availability: availability,
		turn:         turn,
		booker:       booker,
		logger:       logger,
	}
}

// Start consumes the update channel until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.api.GetSelf().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("bot stopping")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	chatID := update.Message.Chat.ID

	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	window := time.Duration(b.cfg.RateLimitWindow) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	allowed, err := b.sessions.CheckRateLimit(updateCtx, chatID, b.cfg.RateLimitMessages, window)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("rate limit check")
	} else if !allowed {
		b.reply(chatID, "Demasiados mensajes, espera un momento por favor.")
		return
	}

	if err := b.handleMessage(updateCtx, chatID, update.Message.Text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("handle message")
		b.reply(chatID, "Algo salió mal, intenta de nuevo con /reservar.")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}
