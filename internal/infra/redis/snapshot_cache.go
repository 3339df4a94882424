package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
	"telegram-identity-bot/internal/domain/ports/repository"
	"telegram-identity-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ repository.SnapshotCache = (*SnapshotCache)(nil)

type SnapshotCache struct {
	client   RedisClient
	identity adapter.IdentityService
	creds    repository.CredentialCache
	ttl      time.Duration
	log      *zerolog.Logger
}

func NewSnapshotCache(client RedisClient, identity adapter.IdentityService, creds repository.CredentialCache, ttl time.Duration, logger *zerolog.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SnapshotCache{
		client:   client,
		identity: identity,
		creds:    creds,
		ttl:      ttl,
		log:      logger,
	}
}

func SnapshotKey(conversationID int64) string {
	return fmt.Sprintf("snapshot:%d", conversationID)
}

func (c *SnapshotCache) Get(ctx context.Context, conversationID int64) (*model.Identity, error) {
	key := SnapshotKey(conversationID)
	val, err := c.client.Get(ctx, key)
	if err == nil {
		var identity model.Identity
		if json.Unmarshal([]byte(val), &identity) == nil && !identity.IsZero() {
			metrics.IncCacheRequest("snapshot", "hit")
			return &identity, nil
		}
	} else if !IsMiss(err) {
		c.log.Warn().Err(err).Int64("tg_id", conversationID).Msg("snapshot cache read failed")
	}

	metrics.IncCacheRequest("snapshot", "miss")
	cred, err := c.creds.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	identity, err := c.identity.FetchByConversation(ctx, cred.Token, conversationID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotAuthenticated) {
			if err := c.creds.Invalidate(ctx, conversationID); err != nil {
				c.log.Warn().Err(err).Int64("tg_id", conversationID).Msg("credential invalidate failed")
			}
		}
		return nil, err
	}
	if err := c.Set(ctx, conversationID, identity); err != nil {
		c.log.Warn().Err(err).Int64("tg_id", conversationID).Msg("snapshot cache write failed")
	}
	return identity, nil
}

func (c *SnapshotCache) Set(ctx context.Context, conversationID int64, identity *model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SnapshotKey(conversationID), data, c.ttl)
}

func (c *SnapshotCache) Delete(ctx context.Context, conversationID int64) error {
	return c.client.Del(ctx, SnapshotKey(conversationID))
}
