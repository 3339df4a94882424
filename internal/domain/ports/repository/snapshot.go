package repository

import (
	"context"

	"telegram-identity-bot/internal/domain/model"
)

// SnapshotCache is a read-through cache of a conversation's own identity.
type SnapshotCache interface {
	Get(ctx context.Context, conversationID int64) (*model.Identity, error)
	Set(ctx context.Context, conversationID int64, identity *model.Identity) error
	Delete(ctx context.Context, conversationID int64) error
}
