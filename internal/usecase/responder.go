package usecase

import (
	"context"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/command"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
	"telegram-identity-bot/internal/infra/i18n"
	"telegram-identity-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// responder turns use case outcomes into replies.
type responder struct {
	bot adapter.Messenger
	t   *i18n.Translator
	log *zerolog.Logger
}

func (r responder) send(ctx context.Context, conversationID int64, text string, buttons ...[]model.Button) error {
	return r.bot.SendMessage(ctx, model.Reply{
		ConversationID: conversationID,
		Text:           text,
		Buttons:        buttons,
	})
}

func (r responder) say(ctx context.Context, conversationID int64, key string, args ...interface{}) error {
	return r.send(ctx, conversationID, r.t.T(key, args...))
}

// fail replies to a failed operation. Local validation errors are
// translated, remote errors are shown verbatim, and everything the user
// cannot act on becomes an apology.
func (r responder) fail(ctx context.Context, conversationID int64, err error) error {
	de, ok := domain.AsError(err)
	if !ok {
		logging.With(ctx, r.log).Error().Err(err).Msg("unexpected handler failure")
		return r.say(ctx, conversationID, "apology")
	}
	switch de.Kind {
	case domain.KindNotAuthenticated:
		return r.say(ctx, conversationID, "register_first")
	case domain.KindTransport, domain.KindInternal:
		logging.With(ctx, r.log).Error().Err(err).Msg("handler failed")
		return r.say(ctx, conversationID, "apology")
	case domain.KindValidation:
		if de.Status == 0 {
			return r.say(ctx, conversationID, de.Message)
		}
	}
	if de.Message == "" {
		return r.say(ctx, conversationID, "apology")
	}
	return r.send(ctx, conversationID, de.Message)
}

func (r responder) button(key string, cmd command.Command) model.Button {
	data := string(cmd)
	if d, ok := command.Lookup(cmd); ok && d.Trigger != "" {
		data = d.Trigger
	}
	return model.Button{Text: r.t.T(key), Data: data}
}

// isRetryable reports failures after which the pending step is kept so the
// user can send the same input again.
func isRetryable(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindTransport, domain.KindInternal:
		return true
	}
	return false
}
