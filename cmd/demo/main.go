// Command demo drives the command engine from stdin against real Redis and
// identity services, logging replies instead of sending them to Telegram.
//
// Each line is one event for the chosen conversation. A line starting with
// "!" is a button press carrying the rest of the line as callback data:
//
//	/register
//	alice_01
//	14-02-1990
//	!menu:profile
package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-identity-bot/internal/application"
	"telegram-identity-bot/internal/config"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/infra/adapters/identity"
	tele "telegram-identity-bot/internal/infra/adapters/telegram"
	"telegram-identity-bot/internal/infra/i18n"
	"telegram-identity-bot/internal/infra/logging"
	red "telegram-identity-bot/internal/infra/redis"
	"telegram-identity-bot/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	chatID := flag.Int64("chat", 42, "conversation id the events belong to")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		logging.New(config.LogConfig{}, true).Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	identitySvc, err := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.Timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("identity client")
	}
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Locale)
	if err != nil {
		logger.Fatal().Err(err).Msg("translations")
	}

	pendingRepo := red.NewPendingCommandRepo(redisClient, cfg.State.PendingTTL)
	creds := red.NewCredentialCache(redisClient, identitySvc, cfg.State.CredentialMaxTTL, logger)
	snapshots := red.NewSnapshotCache(redisClient, identitySvc, creds, cfg.State.SnapshotTTL, logger)
	locker := red.NewLocker(redisClient, cfg.State.LockAttempts, 50*time.Millisecond)
	bot := tele.NewNoopBotAdapter(logger)

	facade := application.NewBotFacade(
		usecase.NewGeneralUseCase(pendingRepo, snapshots, bot, translator, logger),
		usecase.NewRegistrationUseCase(identitySvc, pendingRepo, creds, bot, translator, nil, logger),
		usecase.NewProfileUseCase(identitySvc, pendingRepo, creds, snapshots, bot, translator, nil, logger),
	)
	commands, err := facade.Registry()
	if err != nil {
		logger.Fatal().Err(err).Msg("command registry")
	}
	dispatcher := application.NewDispatcher(commands, pendingRepo, creds, locker, cfg.State.LockTTL, bot, translator, logger)

	logger.Info().Int64("tg_id", *chatID).Msg("reading events from stdin")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev := model.Event{ConversationID: *chatID, Text: line}
		if token, ok := strings.CutPrefix(line, "!"); ok {
			ev = model.Event{ConversationID: *chatID, CallbackToken: token}
		}
		if err := dispatcher.Dispatch(ctx, ev); err != nil {
			logger.Error().Err(err).Msg("dispatch")
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Msg("stdin")
	}
}
