package application

import (
	"telegram-identity-bot/internal/domain/command"
)

// BotFacade composes the use cases into the command registry.
type BotFacade struct {
	GeneralUC      GeneralUseCaseIface
	RegistrationUC RegistrationUseCaseIface
	ProfileUC      ProfileUseCaseIface
}

func NewBotFacade(
	generalUC GeneralUseCaseIface,
	registrationUC RegistrationUseCaseIface,
	profileUC ProfileUseCaseIface,
) *BotFacade {
	return &BotFacade{
		GeneralUC:      generalUC,
		RegistrationUC: registrationUC,
		ProfileUC:      profileUC,
	}
}

// Registry binds every command to its handler and fails if any command is
// left without one.
func (b *BotFacade) Registry() (*Registry, error) {
	r := NewRegistry()
	bindings := map[command.Command]Handler{
		command.Start:    b.GeneralUC.MainMenu,
		command.Help:     b.GeneralUC.Help,
		command.Cancel:   b.GeneralUC.Cancel,
		command.MainMenu: b.GeneralUC.MainMenu,

		command.Register:         b.RegistrationUC.Start,
		command.RegisterMenu:     b.RegistrationUC.Start,
		command.RegisterUsername: b.RegistrationUC.SubmitUsername,
		command.RegisterBirthday: b.RegistrationUC.SubmitBirthday,

		command.Profile:       b.ProfileUC.View,
		command.ProfileMenu:   b.ProfileUC.View,
		command.EditUsername:  b.ProfileUC.EditUsername,
		command.EditBirthday:  b.ProfileUC.EditBirthday,
		command.NewUsername:   b.ProfileUC.SubmitUsername,
		command.NewBirthday:   b.ProfileUC.SubmitBirthday,
		command.DeleteAccount: b.ProfileUC.ConfirmDelete,
		command.DeleteConfirm: b.ProfileUC.Delete,
	}
	for cmd, h := range bindings {
		if err := r.Register(cmd, h); err != nil {
			return nil, err
		}
	}
	if err := r.Complete(); err != nil {
		return nil, err
	}
	return r, nil
}
