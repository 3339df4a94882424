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
	"telegram-identity-bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistrationUseCase drives the sign-up flow:
// Idle -> AwaitingUsername -> AwaitingBirthday -> Idle(registered).
type RegistrationUseCase struct {
	identity adapter.IdentityService
	pending  repository.PendingCommandRepository
	creds    repository.CredentialCache
	reply    responder
	now      Clock
	log      *zerolog.Logger
}

func NewRegistrationUseCase(
	identity adapter.IdentityService,
	pending repository.PendingCommandRepository,
	creds repository.CredentialCache,
	bot adapter.Messenger,
	translator *i18n.Translator,
	clock Clock,
	logger *zerolog.Logger,
) *RegistrationUseCase {
	return &RegistrationUseCase{
		identity: identity,
		pending:  pending,
		creds:    creds,
		reply:    responder{bot: bot, t: translator, log: logger},
		now:      clockOrNow(clock),
		log:      logger,
	}
}

// Start begins (or restarts) the flow with an empty draft.
func (u *RegistrationUseCase) Start(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "RegistrationUC.Start")()

	if err := u.save(ctx, in.ConversationID, command.RegisterUsername, model.SignUpDraft{}); err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	return u.reply.say(ctx, in.ConversationID, "register_ask_username")
}

// SubmitUsername handles AwaitingUsername. Every failure keeps the
// conversation in AwaitingUsername.
func (u *RegistrationUseCase) SubmitUsername(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "RegistrationUC.SubmitUsername")()

	username, err := ValidateUsername(in.Text)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	draft, err := model.DecodeSignUpDraft(in.Payload)
	if err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("discarding unreadable sign-up draft")
		draft = model.SignUpDraft{}
	}

	taken, err := u.identity.UsernameExists(ctx, username)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	if taken {
		return u.reply.say(ctx, in.ConversationID, "username_taken", username)
	}

	draft.Username = username
	if err := u.save(ctx, in.ConversationID, command.RegisterBirthday, draft); err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	return u.reply.say(ctx, in.ConversationID, "register_ask_birthday")
}

// SubmitBirthday handles AwaitingBirthday and completes the sign-up.
func (u *RegistrationUseCase) SubmitBirthday(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "RegistrationUC.SubmitBirthday")()

	draft, err := model.DecodeSignUpDraft(in.Payload)
	if err != nil || draft.Username == "" {
		// Without a username there is nothing to sign up; go back a step.
		logging.With(ctx, u.log).Warn().Err(err).Msg("sign-up draft has no username")
		return u.Start(ctx, in)
	}

	birthday, err := ParseBirthday(in.Text, u.now())
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	draft.Birthday = birthday.Format(model.WireDateLayout)

	tok, err := u.identity.SignUp(ctx, model.SignUpRequest{
		Username:       draft.Username,
		ConversationID: in.ConversationID,
		Password:       uuid.NewString(),
		Birthday:       draft.Birthday,
	})
	if err != nil {
		if !isRetryable(err) {
			u.clear(ctx, in.ConversationID)
		}
		return u.reply.fail(ctx, in.ConversationID, err)
	}

	if _, err := u.creds.Store(ctx, in.ConversationID, tok); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("failed to cache credential after sign-up")
	}
	u.clear(ctx, in.ConversationID)
	metrics.IncUsersRegistered()
	logging.With(ctx, u.log).Info().Str("username", draft.Username).Msg("conversation registered")

	return u.reply.say(ctx, in.ConversationID, "register_done", draft.Username)
}

func (u *RegistrationUseCase) save(ctx context.Context, conversationID int64, step command.Command, draft model.SignUpDraft) error {
	payload, err := model.EncodeSignUpDraft(draft)
	if err != nil {
		return domain.Wrap(domain.KindInternal, "encode draft", err)
	}
	err = u.pending.Set(ctx, &model.PendingCommand{
		ConversationID: conversationID,
		Command:        step,
		Payload:        payload,
		UpdatedAt:      u.now(),
	})
	if err != nil {
		return domain.Wrap(domain.KindInternal, "save pending command", err)
	}
	return nil
}

func (u *RegistrationUseCase) clear(ctx context.Context, conversationID int64) {
	if err := u.pending.Clear(ctx, conversationID); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("failed to clear pending command")
	}
}
