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

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

var _ repository.CredentialCache = (*CredentialCache)(nil)

// CredentialCache signs conversations in on first need and keeps the token
// until it expires.
type CredentialCache struct {
	client   RedisClient
	identity adapter.IdentityService
	maxTTL   time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

func NewCredentialCache(client RedisClient, identity adapter.IdentityService, maxTTL time.Duration, logger *zerolog.Logger) *CredentialCache {
	if maxTTL <= 0 {
		maxTTL = 24 * time.Hour
	}
	return &CredentialCache{
		client:   client,
		identity: identity,
		maxTTL:   maxTTL,
		now:      time.Now,
		log:      logger,
	}
}

func CredentialKey(conversationID int64) string {
	return fmt.Sprintf("credential:%d", conversationID)
}

func (c *CredentialCache) Get(ctx context.Context, conversationID int64) (*model.Credential, error) {
	key := CredentialKey(conversationID)
	val, err := c.client.Get(ctx, key)
	if err == nil {
		var cred model.Credential
		if json.Unmarshal([]byte(val), &cred) == nil && cred.Valid(c.now()) {
			metrics.IncCacheRequest("credential", "hit")
			return &cred, nil
		}
	} else if !IsMiss(err) {
		// Store trouble should not lock users out; fall back to signing in.
		c.log.Warn().Err(err).Int64("tg_id", conversationID).Msg("credential cache read failed")
	}

	metrics.IncCacheRequest("credential", "miss")
	tok, err := c.identity.SignIn(ctx, model.SignInRequest{ConversationID: conversationID})
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindNotFound, domain.KindNotAuthenticated:
			return nil, domain.Wrap(domain.KindNotAuthenticated, domain.MessageOf(err), err)
		}
		return nil, err
	}

	cred, err := c.Store(ctx, conversationID, tok)
	if err != nil {
		c.log.Warn().Err(err).Int64("tg_id", conversationID).Msg("credential cache write failed")
	}
	if !cred.Valid(c.now()) {
		c.log.Error().Int64("tg_id", conversationID).Time("expiry", cred.Expiry).Msg("sign-in returned an expired token")
		return nil, domain.New(domain.KindInternal, "identity service issued an expired token")
	}
	return cred, nil
}

// Store caches a token obtained by sign-in or sign-up. The returned
// credential is usable even when the write fails.
func (c *CredentialCache) Store(ctx context.Context, conversationID int64, tok *model.AuthToken) (*model.Credential, error) {
	cred := &model.Credential{
		ConversationID: conversationID,
		Token:          tok.Token,
		Expiry:         c.resolveExpiry(tok),
	}
	ttl := cred.TTL(c.now(), c.maxTTL)
	if ttl <= 0 {
		return cred, nil
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return cred, err
	}
	return cred, c.client.Set(ctx, CredentialKey(conversationID), data, ttl)
}

func (c *CredentialCache) Invalidate(ctx context.Context, conversationID int64) error {
	return c.client.Del(ctx, CredentialKey(conversationID))
}

// resolveExpiry prefers the server's expiry, then the token's own exp claim,
// then the cap.
func (c *CredentialCache) resolveExpiry(tok *model.AuthToken) time.Time {
	if !tok.Expiry.IsZero() {
		return tok.Expiry
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.Token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return c.now().Add(c.maxTTL)
}
