package adapter

import (
	"context"

	"telegram-identity-bot/internal/domain/model"
)

// IdentityService is the outbound contract of the remote identity service.
// Non-2xx responses surface as *domain.Error with the server message;
// network failures surface with domain.KindTransport. Implementations never
// retry.
type IdentityService interface {
	SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthToken, error)
	SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthToken, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	FetchByConversation(ctx context.Context, token string, conversationID int64) (*model.Identity, error)
	Update(ctx context.Context, token, id string, req model.UpdateRequest) (*model.Identity, error)
	Delete(ctx context.Context, token, id string) error
}
