package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/command"
	"telegram-identity-bot/internal/usecase"
)

// Handler runs one command for one event.
type Handler func(ctx context.Context, in usecase.Input) error

// Registry maps command identifiers to handlers.
type Registry struct {
	handlers map[command.Command]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[command.Command]Handler)}
}

// Register binds h to cmd. Unknown commands and double bindings are errors.
func (r *Registry) Register(cmd command.Command, h Handler) error {
	if _, ok := command.Lookup(cmd); !ok {
		return fmt.Errorf("register handler: %w %q", domain.ErrUnknownCommand, cmd)
	}
	if h == nil {
		return fmt.Errorf("register handler: nil handler for %q", cmd)
	}
	if _, dup := r.handlers[cmd]; dup {
		return fmt.Errorf("register handler: %q already bound", cmd)
	}
	r.handlers[cmd] = h
	return nil
}

func (r *Registry) Handler(cmd command.Command) (Handler, bool) {
	h, ok := r.handlers[cmd]
	return h, ok
}

// Complete reports the commands that have no handler.
func (r *Registry) Complete() error {
	var missing []string
	for _, d := range command.All() {
		if _, ok := r.handlers[d.ID]; !ok {
			missing = append(missing, string(d.ID))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("commands without handler: %s", strings.Join(missing, ", "))
}
