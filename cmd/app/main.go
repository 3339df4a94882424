// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"telegram-identity-bot/internal/application"
	"telegram-identity-bot/internal/config"
	"telegram-identity-bot/internal/infra/adapters/identity"
	tele "telegram-identity-bot/internal/infra/adapters/telegram"
	httpapi "telegram-identity-bot/internal/infra/http"
	"telegram-identity-bot/internal/infra/i18n"
	"telegram-identity-bot/internal/infra/logging"
	"telegram-identity-bot/internal/infra/metrics"
	red "telegram-identity-bot/internal/infra/redis"
	"telegram-identity-bot/internal/usecase"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted secrets)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		logging.New(config.LogConfig{}, *devMode).Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Metrics ----
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.URL).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Identity service ----
	identitySvc, err := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.Timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("identity client")
	}

	// ---- Conversation state ----
	pendingRepo := red.NewPendingCommandRepo(redisClient, cfg.State.PendingTTL)
	creds := red.NewCredentialCache(redisClient, identitySvc, cfg.State.CredentialMaxTTL, logger)
	snapshots := red.NewSnapshotCache(redisClient, identitySvc, creds, cfg.State.SnapshotTTL, logger)
	locker := red.NewLocker(redisClient, cfg.State.LockAttempts, 50*time.Millisecond)
	rateLimiter := red.NewRateLimiter(redisClient)

	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Locale)
	if err != nil {
		logger.Fatal().Err(err).Str("locale", cfg.Bot.Locale).Msg("translations")
	}

	// ---- Telegram ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, rateLimiter, cfg.RateLimit.EventsPerMinute, translator, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).Msg("telegram")
	}
	if strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot.mode not implemented; falling back to polling")
	}
	if err := botAdapter.RegisterCommands(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to publish bot commands")
	}

	// ---- Use cases ----
	generalUC := usecase.NewGeneralUseCase(pendingRepo, snapshots, botAdapter, translator, logger)
	registrationUC := usecase.NewRegistrationUseCase(identitySvc, pendingRepo, creds, botAdapter, translator, nil, logger)
	profileUC := usecase.NewProfileUseCase(identitySvc, pendingRepo, creds, snapshots, botAdapter, translator, nil, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(generalUC, registrationUC, profileUC)
	commands, err := facade.Registry()
	if err != nil {
		logger.Fatal().Err(err).Msg("command registry")
	}
	dispatcher := application.NewDispatcher(commands, pendingRepo, creds, locker, cfg.State.LockTTL, botAdapter, translator, logger)

	// ---- Admin server ----
	admin := httpapi.NewServer(cfg.AdminAddr(), redisClient, registry, logger)
	go func() {
		if err := admin.Start(); err != nil {
			logger.Error().Err(err).Msg("admin server error")
			stop()
		}
	}()

	pollingDone := make(chan struct{})
	go func() {
		defer close(pollingDone)
		if err := botAdapter.StartPolling(ctx, dispatcher); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	botAdapter.StopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	select {
	case <-pollingDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("in-flight updates did not finish before shutdown timeout")
	}
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin shutdown")
	}
}
