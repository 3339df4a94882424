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

// ProfileUseCase shows and edits the identity of a registered conversation.
type ProfileUseCase struct {
	identity  adapter.IdentityService
	pending   repository.PendingCommandRepository
	creds     repository.CredentialCache
	snapshots repository.SnapshotCache
	reply     responder
	now       Clock
	log       *zerolog.Logger
}

func NewProfileUseCase(
	identity adapter.IdentityService,
	pending repository.PendingCommandRepository,
	creds repository.CredentialCache,
	snapshots repository.SnapshotCache,
	bot adapter.Messenger,
	translator *i18n.Translator,
	clock Clock,
	logger *zerolog.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		identity:  identity,
		pending:   pending,
		creds:     creds,
		snapshots: snapshots,
		reply:     responder{bot: bot, t: translator, log: logger},
		now:       clockOrNow(clock),
		log:       logger,
	}
}

// View renders the cached identity with edit buttons.
func (u *ProfileUseCase) View(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "ProfileUC.View")()

	identity, err := u.snapshots.Get(ctx, in.ConversationID)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	birthday := identity.DisplayBirthday()
	if birthday == "" {
		birthday = u.reply.t.T("profile_no_birthday")
	}
	return u.reply.send(ctx, in.ConversationID,
		u.reply.t.T("profile_view", identity.Username, birthday),
		[]model.Button{
			u.reply.button("btn_edit_username", command.EditUsername),
			u.reply.button("btn_edit_birthday", command.EditBirthday),
		},
		[]model.Button{
			u.reply.button("btn_delete", command.DeleteAccount),
			u.reply.button("btn_main_menu", command.MainMenu),
		},
	)
}

func (u *ProfileUseCase) EditUsername(ctx context.Context, in Input) error {
	return u.beginEdit(ctx, in, command.NewUsername, "profile_ask_username")
}

func (u *ProfileUseCase) EditBirthday(ctx context.Context, in Input) error {
	return u.beginEdit(ctx, in, command.NewBirthday, "profile_ask_birthday")
}

// beginEdit pins the identity being edited in the pending payload and
// waits for the new value.
func (u *ProfileUseCase) beginEdit(ctx context.Context, in Input, step command.Command, prompt string) error {
	defer logging.TraceDuration(u.log, "ProfileUC.beginEdit")()

	identity, err := u.snapshots.Get(ctx, in.ConversationID)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	payload, err := model.EncodeProfileEditDraft(model.ProfileEditDraft{
		IdentityID:      identity.ID,
		CurrentUsername: identity.Username,
	})
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, domain.Wrap(domain.KindInternal, "encode draft", err))
	}
	err = u.pending.Set(ctx, &model.PendingCommand{
		ConversationID: in.ConversationID,
		Command:        step,
		Payload:        payload,
		UpdatedAt:      u.now(),
	})
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, domain.Wrap(domain.KindInternal, "save pending command", err))
	}
	return u.reply.say(ctx, in.ConversationID, prompt)
}

// SubmitUsername handles AwaitingNewUsername. The caller's own current
// username counts as available.
func (u *ProfileUseCase) SubmitUsername(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "ProfileUC.SubmitUsername")()

	draft, ok := u.draft(ctx, in)
	if !ok {
		return nil
	}
	username, err := ValidateUsername(in.Text)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	if username != draft.CurrentUsername {
		taken, err := u.identity.UsernameExists(ctx, username)
		if err != nil {
			return u.reply.fail(ctx, in.ConversationID, err)
		}
		if taken {
			return u.reply.say(ctx, in.ConversationID, "username_taken", username)
		}
	}
	return u.apply(ctx, in, draft, model.UpdateRequest{Username: username})
}

// SubmitBirthday handles AwaitingNewBirthday.
func (u *ProfileUseCase) SubmitBirthday(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "ProfileUC.SubmitBirthday")()

	draft, ok := u.draft(ctx, in)
	if !ok {
		return nil
	}
	birthday, err := ParseBirthday(in.Text, u.now())
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	return u.apply(ctx, in, draft, model.UpdateRequest{Birthday: birthday.Format(model.WireDateLayout)})
}

// ConfirmDelete asks before deleting anything.
func (u *ProfileUseCase) ConfirmDelete(ctx context.Context, in Input) error {
	return u.reply.send(ctx, in.ConversationID,
		u.reply.t.T("profile_delete_prompt"),
		[]model.Button{
			u.reply.button("btn_delete_confirm", command.DeleteConfirm),
			u.reply.button("btn_profile", command.ProfileMenu),
		},
	)
}

// Delete removes the remote identity and everything cached for the
// conversation.
func (u *ProfileUseCase) Delete(ctx context.Context, in Input) error {
	defer logging.TraceDuration(u.log, "ProfileUC.Delete")()

	identity, err := u.snapshots.Get(ctx, in.ConversationID)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	cred, err := u.creds.Get(ctx, in.ConversationID)
	if err != nil {
		return u.reply.fail(ctx, in.ConversationID, err)
	}
	if err := u.identity.Delete(ctx, cred.Token, identity.ID); err != nil {
		if domain.IsKind(err, domain.KindNotAuthenticated) {
			u.forgetCredential(ctx, in.ConversationID)
		}
		return u.reply.fail(ctx, in.ConversationID, err)
	}

	log := logging.With(ctx, u.log)
	if err := u.snapshots.Delete(ctx, in.ConversationID); err != nil {
		log.Warn().Err(err).Msg("failed to drop snapshot after delete")
	}
	u.forgetCredential(ctx, in.ConversationID)
	u.clear(ctx, in.ConversationID)
	log.Info().Str("identity_id", identity.ID).Msg("identity deleted")

	return u.reply.say(ctx, in.ConversationID, "profile_deleted")
}

// draft reads the pinned identity. A broken payload ends the flow with an
// apology and ok=false.
func (u *ProfileUseCase) draft(ctx context.Context, in Input) (model.ProfileEditDraft, bool) {
	draft, err := model.DecodeProfileEditDraft(in.Payload)
	if err == nil && draft.IdentityID != "" {
		return draft, true
	}
	logging.With(ctx, u.log).Warn().Err(err).Msg("profile draft has no identity")
	u.clear(ctx, in.ConversationID)
	_ = u.reply.say(ctx, in.ConversationID, "apology")
	return model.ProfileEditDraft{}, false
}

// apply sends the update. Remote failures end the flow with the server's
// message; transport failures keep the step for a retry.
func (u *ProfileUseCase) apply(ctx context.Context, in Input, draft model.ProfileEditDraft, req model.UpdateRequest) error {
	cred, err := u.creds.Get(ctx, in.ConversationID)
	if err != nil {
		if !isRetryable(err) {
			u.clear(ctx, in.ConversationID)
		}
		return u.reply.fail(ctx, in.ConversationID, err)
	}

	updated, err := u.identity.Update(ctx, cred.Token, draft.IdentityID, req)
	if err != nil {
		if isRetryable(err) {
			return u.reply.fail(ctx, in.ConversationID, err)
		}
		if domain.IsKind(err, domain.KindNotAuthenticated) {
			u.forgetCredential(ctx, in.ConversationID)
		}
		u.clear(ctx, in.ConversationID)
		return u.reply.fail(ctx, in.ConversationID, err)
	}

	if err := u.snapshots.Set(ctx, in.ConversationID, updated); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("failed to refresh snapshot")
	}
	u.clear(ctx, in.ConversationID)
	return u.reply.say(ctx, in.ConversationID, "profile_updated")
}

func (u *ProfileUseCase) forgetCredential(ctx context.Context, conversationID int64) {
	if err := u.creds.Invalidate(ctx, conversationID); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("failed to invalidate credential")
	}
}

func (u *ProfileUseCase) clear(ctx context.Context, conversationID int64) {
	if err := u.pending.Clear(ctx, conversationID); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("failed to clear pending command")
	}
}
