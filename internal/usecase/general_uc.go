package usecase

import (
	"context"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/command"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
	"telegram-identity-bot/internal/domain/ports/repository"
	"telegram-identity-bot/internal/infra/i18n"
	"telegram-identity-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// GeneralUseCase serves the commands that are not part of a flow.
type GeneralUseCase struct {
	pending   repository.PendingCommandRepository
	snapshots repository.SnapshotCache
	reply     responder
	log       *zerolog.Logger
}

func NewGeneralUseCase(
	pending repository.PendingCommandRepository,
	snapshots repository.SnapshotCache,
	bot adapter.Messenger,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) *GeneralUseCase {
	return &GeneralUseCase{
		pending:   pending,
		snapshots: snapshots,
		reply:     responder{bot: bot, t: translator, log: logger},
		log:       logger,
	}
}

// MainMenu greets the caller with buttons that depend on whether the
// conversation is registered. It serves both /start and menu:main.
func (u *GeneralUseCase) MainMenu(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "GeneralUC.MainMenu")()

	identity, err := u.snapshots.Get(ctx, in.ConversationID)
	switch {
	case err == nil:
		return u.reply.send(ctx, in.ConversationID,
			u.reply.t.T("welcome_back", identity.Username),
			[]model.Button{u.reply.button("btn_profile", command.ProfileMenu)},
		)
	case domain.IsKind(err, domain.KindNotAuthenticated):
		return u.reply.send(ctx, in.ConversationID,
			u.reply.t.T("welcome"),
			[]model.Button{u.reply.button("btn_register", command.RegisterMenu)},
		)
	default:
		return u.reply.fail(ctx, in.ConversationID, err)
	}
}

func (u *GeneralUseCase) Help(ctx context.Context, in Input) error {
	return u.reply.say(ctx, in.ConversationID, "help")
}

// Cancel drops whatever flow is pending.
func (u *GeneralUseCase) Cancel(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "GeneralUC.Cancel")()

	state, err := u.pending.Get(ctx, in.ConversationID)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, domain.Wrap(domain.KindInternal, "read pending command", err))
	}
	if state == nil {
		return u.reply.say(ctx, in.ConversationID, "nothing_to_cancel")
	}
	if err := u.pending.Clear(ctx, in.ConversationID); err != nil {
		return u.reply.fail(ctx, in.ConversationID, domain.Wrap(domain.KindInternal, "clear pending command", err))
	}
	return u.reply.say(ctx, in.ConversationID, "cancelled")
}
