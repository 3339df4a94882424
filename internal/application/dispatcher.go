package application

import (
	"context"
	"time"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/command"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
	"telegram-identity-bot/internal/domain/ports/repository"
	"telegram-identity-bot/internal/infra/i18n"
	"telegram-identity-bot/internal/infra/logging"
	"telegram-identity-bot/internal/infra/metrics"
	"telegram-identity-bot/internal/infra/redis"
	"telegram-identity-bot/internal/usecase"

	"github.com/rs/zerolog"
)

const (
	routePrimary = "primary"
	routeStep    = "step"
	routeMenu    = "menu"
	routeIgnored = "ignored"
)

// Dispatcher resolves one event to at most one handler invocation.
type Dispatcher struct {
	registry *Registry
	pending  repository.PendingCommandRepository
	creds    repository.CredentialCache
	locker   redis.Locker // nil disables per-conversation serialization
	lockTTL  time.Duration
	bot      adapter.Messenger
	t        *i18n.Translator
	log      *zerolog.Logger
}

func NewDispatcher(
	registry *Registry,
	pending repository.PendingCommandRepository,
	creds repository.CredentialCache,
	locker redis.Locker,
	lockTTL time.Duration,
	bot adapter.Messenger,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) *Dispatcher {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Dispatcher{
		registry: registry,
		pending:  pending,
		creds:    creds,
		locker:   locker,
		lockTTL:  lockTTL,
		bot:      bot,
		t:        translator,
		log:      logger,
	}
}

// Dispatch handles one inbound event:
//  1. text matching a primary command runs it, subject to its role;
//  2. otherwise a pending step runs with the stored payload;
//  3. otherwise a callback matching a menu command runs it, subject to its role;
//  4. anything else is ignored without a reply.
//
// The returned error is only ever a reply delivery failure.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.Event) error {
	ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	ctx = logging.WithTgID(ctx, ev.ConversationID)
	defer logging.TraceDuration(logging.With(ctx, d.log), "Dispatcher.Dispatch")()

	release := d.acquire(ctx, ev.ConversationID)
	defer release()

	in := usecase.Input{
		ConversationID: ev.ConversationID,
		Text:           ev.Text,
		CallbackToken:  ev.CallbackToken,
	}

	if !ev.IsCallback() {
		if def, ok := command.MatchPrimary(ev.Text); ok {
			// /cancel reports on the flow it drops, so it clears state itself
			if def.ID != command.Cancel {
				d.abandon(ctx, ev.ConversationID)
			}
			return d.run(ctx, routePrimary, def, in, true)
		}
	}

	state, err := d.pending.Get(ctx, ev.ConversationID)
	if err != nil {
		logging.With(ctx, d.log).Error().Err(err).Msg("failed to read pending command")
		return d.say(ctx, ev.ConversationID, "apology")
	}
	if state != nil {
		if def, ok := command.Lookup(state.Command); ok && def.Category == command.Step {
			in.Payload = state.Payload
			return d.run(ctx, routeStep, def, in, false)
		}
		logging.With(ctx, d.log).Warn().Str("command", string(state.Command)).Msg("dropping pending command with unknown step")
		d.abandon(ctx, ev.ConversationID)
	}

	if ev.IsCallback() {
		if def, ok := command.MatchMenu(ev.CallbackToken); ok {
			return d.run(ctx, routeMenu, def, in, true)
		}
	}

	metrics.IncDispatch(routeIgnored, "", "ignored")
	logging.With(ctx, d.log).Debug().Bool("callback", ev.IsCallback()).Msg("event matched no command")
	return nil
}

func (d *Dispatcher) run(ctx context.Context, route string, def command.Definition, in usecase.Input, checkRole bool) error {
	ctx = logging.WithCommand(ctx, string(def.ID))
	log := logging.With(ctx, d.log)

	if checkRole {
		allowed, err := d.authorize(ctx, def, in.ConversationID)
		if !allowed {
			metrics.IncDispatch(route, string(def.ID), "denied")
			return err
		}
	}

	h, ok := d.registry.Handler(def.ID)
	if !ok {
		log.Error().Msg("no handler bound for command")
		metrics.IncDispatch(route, string(def.ID), "unhandled")
		return nil
	}

	if err := h(ctx, in); err != nil {
		metrics.IncDispatch(route, string(def.ID), "error")
		return err
	}
	metrics.IncDispatch(route, string(def.ID), "ok")
	return nil
}

// authorize resolves the caller's role lazily and replies when the command
// is not permitted. The error is a reply delivery failure.
func (d *Dispatcher) authorize(ctx context.Context, def command.Definition, conversationID int64) (bool, error) {
	if def.Role == command.RoleAny {
		return true, nil
	}
	actual := command.RoleAuthenticated
	if _, err := d.creds.Get(ctx, conversationID); err != nil {
		if !domain.IsKind(err, domain.KindNotAuthenticated) {
			logging.With(ctx, d.log).Error().Err(err).Msg("failed to resolve caller role")
			return false, d.say(ctx, conversationID, "apology")
		}
		actual = command.RoleAnonymous
	}
	if def.Role.Permits(actual) {
		return true, nil
	}
	if def.Role == command.RoleAuthenticated {
		return false, d.say(ctx, conversationID, "register_first")
	}
	return false, d.say(ctx, conversationID, "already_registered")
}

// abandon drops any pending flow superseded by a primary command.
func (d *Dispatcher) abandon(ctx context.Context, conversationID int64) {
	if err := d.pending.Clear(ctx, conversationID); err != nil {
		logging.With(ctx, d.log).Warn().Err(err).Msg("failed to clear pending command")
	}
}

func (d *Dispatcher) say(ctx context.Context, conversationID int64, key string) error {
	return d.bot.SendMessage(ctx, model.Reply{ConversationID: conversationID, Text: d.t.T(key)})
}

// acquire takes the conversation lock. A lock that cannot be taken is
// logged and the event proceeds unserialized.
func (d *Dispatcher) acquire(ctx context.Context, conversationID int64) func() {
	if d.locker == nil {
		return func() {}
	}
	key := redis.ConversationLockKey(conversationID)
	token, err := d.locker.TryLock(ctx, key, d.lockTTL)
	if err != nil {
		metrics.IncLockContended()
		logging.With(ctx, d.log).Warn().Err(err).Msg("processing event without conversation lock")
		return func() {}
	}
	return func() {
		if err := d.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			logging.With(ctx, d.log).Warn().Err(err).Msg("failed to release conversation lock")
		}
	}
}
