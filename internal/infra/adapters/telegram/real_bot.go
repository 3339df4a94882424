package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-identity-bot/internal/config"
	"telegram-identity-bot/internal/domain/command"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
	"telegram-identity-bot/internal/infra/i18n"
	"telegram-identity-bot/internal/infra/logging"
	"telegram-identity-bot/internal/infra/metrics"
	red "telegram-identity-bot/internal/infra/redis"
	"telegram-identity-bot/internal/infra/worker"
)

var _ adapter.Messenger = (*RealTelegramBotAdapter)(nil)

// EventDispatcher consumes the events this adapter produces.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev model.Event) error
}

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RealTelegramBotAdapter long-polls Telegram, turns updates into events
// and sends replies.
type RealTelegramBotAdapter struct {
	bot             botAPI
	cfg             *config.BotConfig
	rateLimiter     *red.RateLimiter
	eventsPerMinute int
	pool            *worker.Pool
	t               *i18n.Translator
	log             *zerolog.Logger

	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	rateLimiter *red.RateLimiter,
	eventsPerMinute int,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("telegram bot authorized")
	return newAdapter(bot, cfg, rateLimiter, eventsPerMinute, translator, logger), nil
}

func newAdapter(bot botAPI, cfg *config.BotConfig, rateLimiter *red.RateLimiter, eventsPerMinute int, translator *i18n.Translator, logger *zerolog.Logger) *RealTelegramBotAdapter {
	if eventsPerMinute <= 0 {
		eventsPerMinute = 30
	}
	return &RealTelegramBotAdapter{
		bot:             bot,
		cfg:             cfg,
		rateLimiter:     rateLimiter,
		eventsPerMinute: eventsPerMinute,
		pool:            worker.NewPool(cfg.Workers, logger),
		t:               translator,
		log:             logger,
	}
}

// StartPolling feeds updates to d through the worker pool until ctx is
// done. In-flight updates finish on a context that outlives ctx, and
// StartPolling returns only after they have.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, d EventDispatcher) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()
	defer cancel()

	r.pool.Start(context.WithoutCancel(ctx))
	defer r.pool.Stop()
	defer r.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			task := func(ctx context.Context) error { return r.handleUpdate(ctx, up, d) }
			if err := r.pool.SubmitWait(ctx, task); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("dropping telegram update")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) polling() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelPolling != nil
}

// RegisterCommands publishes the primary commands to the Telegram menu.
func (r *RealTelegramBotAdapter) RegisterCommands(ctx context.Context) error {
	var cmds []tgbotapi.BotCommand
	for _, d := range command.All() {
		if d.Category != command.Primary {
			continue
		}
		cmds = append(cmds, tgbotapi.BotCommand{
			Command:     strings.TrimPrefix(d.Trigger, "/"),
			Description: r.t.T("cmd_" + string(d.ID)),
		})
	}
	_, err := r.bot.Request(tgbotapi.NewSetMyCommands(cmds...))
	return err
}

// SendMessage delivers a reply. Buttons with a URL open a link, the rest
// send their Data back as callback data.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, reply model.Reply) error {
	// Support early cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := tgbotapi.NewMessage(reply.ConversationID, reply.Text)
	if markup, ok := inlineKeyboard(reply.Buttons); ok {
		msg.ReplyMarkup = markup
	}
	_, err := r.bot.Send(msg)
	return err
}

func inlineKeyboard(rows [][]model.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				// safe fallback: use text as callback data
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kr)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update, d EventDispatcher) error {
	metrics.IncTelegramUpdate(updateKind(update))

	if q := update.CallbackQuery; q != nil {
		// Stop the telegram spinner when we return
		defer func() {
			if _, err := r.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
				r.log.Debug().Err(err).Msg("answer callback failed")
			}
		}()
	}

	ev, ok := ToEvent(update)
	if !ok {
		return nil
	}

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.ConversationEventKey(ev.ConversationID), r.eventsPerMinute, time.Minute)
		if err != nil {
			r.log.Warn().Err(err).Int64("tg_id", ev.ConversationID).Msg("rate limit check failed")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return r.SendMessage(ctx, model.Reply{ConversationID: ev.ConversationID, Text: r.t.T("rate_limited")})
		}
	}

	if err := d.Dispatch(ctx, ev); err != nil {
		logging.With(logging.WithTgID(ctx, ev.ConversationID), r.log).Error().Err(err).Msg("failed to deliver reply")
		return err
	}
	return nil
}

// ToEvent converts a Telegram update into an inbound event. Updates that
// carry neither text nor callback data are not events.
func ToEvent(update tgbotapi.Update) (model.Event, bool) {
	if q := update.CallbackQuery; q != nil {
		data := strings.TrimSpace(q.Data)
		if data == "" {
			return model.Event{}, false
		}
		var chatID int64
		if q.Message != nil && q.Message.Chat != nil {
			chatID = q.Message.Chat.ID
		} else if q.From != nil {
			chatID = q.From.ID
		}
		if chatID == 0 {
			return model.Event{}, false
		}
		return model.Event{ConversationID: chatID, CallbackToken: data}, true
	}

	m := update.Message
	if m == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
		return model.Event{}, false
	}
	return model.Event{ConversationID: m.Chat.ID, Text: m.Text}, true
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}
