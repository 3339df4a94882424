package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-identity-bot/internal/domain/model"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// memClient is an in-memory RedisClient whose clock only moves on Advance.
type memClient struct {
	mu   sync.Mutex
	now  time.Time
	data map[string]entry

	failGet error
	failSet error
	failDel error
}

var _ RedisClient = (*memClient)(nil)

func newMemClient(now time.Time) *memClient {
	return &memClient{now: now, data: make(map[string]entry)}
}

func (m *memClient) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *memClient) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok || e.expiresAt.IsZero() {
		return 0
	}
	return e.expiresAt.Sub(m.now)
}

func (m *memClient) live(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now.Before(e.expiresAt) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}

func (m *memClient) put(key string, value interface{}, exp time.Duration) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	e := entry{value: s}
	if exp > 0 {
		e.expiresAt = m.now.Add(exp)
	}
	m.data[key] = e
}

func (m *memClient) Ping(ctx context.Context) error { return nil }

func (m *memClient) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, value, exp)
	return nil
}

func (m *memClient) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.put(key, value, exp)
	return true, nil
}

func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	if m.failGet != nil {
		return "", m.failGet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return "", redis.Nil
	}
	return e.value, nil
}

func (m *memClient) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, _ := m.live(key)
	n, _ := strconv.ParseInt(e.value, 10, 64)
	n++
	e.value = strconv.FormatInt(n, 10)
	m.data[key] = e
	return n, nil
}

func (m *memClient) Expire(ctx context.Context, key string, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.live(key); ok {
		e.expiresAt = m.now.Add(exp)
		m.data[key] = e
	}
	return nil
}

func (m *memClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return m.failDel
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memClient) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.live(key); ok && e.value == expected {
		delete(m.data, key)
		return true, nil
	}
	return false, nil
}

func (m *memClient) Close() error { return nil }

var errStoreDown = errors.New("redis: connection pool timeout")

// stubIdentity answers sign-in and fetch with fixed results and counts calls.
type stubIdentity struct {
	signInToken *model.AuthToken
	signInErr   error
	signIns     int

	identity *model.Identity
	fetchErr error
	fetches  int
}

func (s *stubIdentity) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthToken, error) {
	return nil, errors.New("not used")
}

func (s *stubIdentity) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthToken, error) {
	s.signIns++
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return s.signInToken, nil
}

func (s *stubIdentity) UsernameExists(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (s *stubIdentity) FetchByConversation(ctx context.Context, token string, conversationID int64) (*model.Identity, error) {
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.identity, nil
}

func (s *stubIdentity) Update(ctx context.Context, token, id string, req model.UpdateRequest) (*model.Identity, error) {
	return nil, errors.New("not used")
}

func (s *stubIdentity) Delete(ctx context.Context, token, id string) error {
	return errors.New("not used")
}
