package application

import (
	"context"

	"telegram-identity-bot/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// Each method is a handler for one command.
type GeneralUseCaseIface interface {
	MainMenu(ctx context.Context, in usecase.Input) error
	Help(ctx context.Context, in usecase.Input) error
	Cancel(ctx context.Context, in usecase.Input) error
}

type RegistrationUseCaseIface interface {
	Start(ctx context.Context, in usecase.Input) error
	SubmitUsername(ctx context.Context, in usecase.Input) error
	SubmitBirthday(ctx context.Context, in usecase.Input) error
}

type ProfileUseCaseIface interface {
	View(ctx context.Context, in usecase.Input) error
	EditUsername(ctx context.Context, in usecase.Input) error
	EditBirthday(ctx context.Context, in usecase.Input) error
	SubmitUsername(ctx context.Context, in usecase.Input) error
	SubmitBirthday(ctx context.Context, in usecase.Input) error
	ConfirmDelete(ctx context.Context, in usecase.Input) error
	Delete(ctx context.Context, in usecase.Input) error
}

var (
	_ GeneralUseCaseIface      = (*usecase.GeneralUseCase)(nil)
	_ RegistrationUseCaseIface = (*usecase.RegistrationUseCase)(nil)
	_ ProfileUseCaseIface      = (*usecase.ProfileUseCase)(nil)
)
