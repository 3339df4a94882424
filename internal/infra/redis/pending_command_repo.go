package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/repository"
)

// Ensure the adapter implements the port interface.
var _ repository.PendingCommandRepository = (*PendingCommandRepo)(nil)

// PendingCommandRepo keeps each conversation's in-progress flow step in
// Redis. Abandoned flows expire with the key.
type PendingCommandRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewPendingCommandRepo(client RedisClient, ttl time.Duration) *PendingCommandRepo {
	if ttl <= 0 {
		ttl = 4 * time.Minute
	}
	return &PendingCommandRepo{client: client, ttl: ttl}
}

func PendingCommandKey(conversationID int64) string {
	return fmt.Sprintf("pending-command:%d", conversationID)
}

// Set overwrites whatever was pending and restarts the TTL.
func (s *PendingCommandRepo) Set(ctx context.Context, state *model.PendingCommand) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode pending command: %w", err)
	}
	return s.client.Set(ctx, PendingCommandKey(state.ConversationID), data, s.ttl)
}

func (s *PendingCommandRepo) Get(ctx context.Context, conversationID int64) (*model.PendingCommand, error) {
	data, err := s.client.Get(ctx, PendingCommandKey(conversationID))
	if IsMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state model.PendingCommand
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("decode pending command: %w", err)
	}
	return &state, nil
}

func (s *PendingCommandRepo) Clear(ctx context.Context, conversationID int64) error {
	return s.client.Del(ctx, PendingCommandKey(conversationID))
}
