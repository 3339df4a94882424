// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-identity-bot/internal/domain/model"
)

// Messenger delivers replies to a conversation.
type Messenger interface {
	SendMessage(ctx context.Context, reply model.Reply) error
}
