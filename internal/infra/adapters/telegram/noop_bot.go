package telegram

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.Messenger for local/dev runs.
// It logs replies instead of sending real Telegram messages.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, reply model.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := b.log.Info().Int64("tg_id", reply.ConversationID).Str("text", reply.Text)
	if len(reply.Buttons) > 0 {
		ev = ev.Strs("buttons", buttonLabels(reply.Buttons))
	}
	ev.Msg("[noop-telegram] reply")
	return nil
}

// buttonLabels renders each button as "text=data" for the log line.
func buttonLabels(rows [][]model.Button) []string {
	var out []string
	for _, row := range rows {
		for _, btn := range row {
			target := btn.Data
			if btn.URL != "" {
				target = btn.URL
			}
			out = append(out, strings.TrimSpace(btn.Text)+"="+target)
		}
	}
	return out
}
