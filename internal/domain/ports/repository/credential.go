package repository

import (
	"context"

	"telegram-identity-bot/internal/domain/model"
)

// CredentialCache lazily signs a conversation in and caches its token.
// Get fails with domain.ErrNotAuthenticated when the conversation has no
// registered identity.
type CredentialCache interface {
	Get(ctx context.Context, conversationID int64) (*model.Credential, error)
	Store(ctx context.Context, conversationID int64, tok *model.AuthToken) (*model.Credential, error)
	Invalidate(ctx context.Context, conversationID int64) error
}
