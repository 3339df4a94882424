package repository

import (
	"context"

	"telegram-identity-bot/internal/domain/model"
)

// PendingCommandRepository stores the single in-progress flow step per
// conversation. Set overwrites unconditionally; Get returns (nil, nil) when
// nothing is pending or the entry expired.
type PendingCommandRepository interface {
	Set(ctx context.Context, state *model.PendingCommand) error
	Get(ctx context.Context, conversationID int64) (*model.PendingCommand, error)
	Clear(ctx context.Context, conversationID int64) error
}
