package application_test

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/infra/i18n"
	"telegram-identity-bot/internal/infra/redis"
	"telegram-identity-bot/internal/usecase"
)

// ---- in-memory RedisClient with a movable clock ----

type kvEntry struct {
	value     string
	expiresAt time.Time
}

type fakeKV struct {
	mu   sync.Mutex
	now  time.Time
	data map[string]kvEntry
}

var _ redis.RedisClient = (*fakeKV)(nil)

func newFakeKV() *fakeKV {
	return &fakeKV{now: time.Now(), data: make(map[string]kvEntry)}
}

func (f *fakeKV) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeKV) live(key string) (kvEntry, bool) {
	e, ok := f.data[key]
	if !ok {
		return kvEntry{}, false
	}
	if !e.expiresAt.IsZero() && !f.now.Before(e.expiresAt) {
		delete(f.data, key)
		return kvEntry{}, false
	}
	return e, true
}

func (f *fakeKV) put(key string, value interface{}, exp time.Duration) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	e := kvEntry{value: s}
	if exp > 0 {
		e.expiresAt = f.now.Add(exp)
	}
	f.data[key] = e
}

func (f *fakeKV) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.live(key)
	return ok
}

func (f *fakeKV) Ping(ctx context.Context) error { return nil }

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(key, value, exp)
	return nil
}

func (f *fakeKV) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live(key); ok {
		return false, nil
	}
	f.put(key, value, exp)
	return true, nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.live(key)
	if !ok {
		return "", goredis.Nil
	}
	return e.value, nil
}

func (f *fakeKV) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, _ := f.live(key)
	n, _ := strconv.ParseInt(e.value, 10, 64)
	n++
	e.value = strconv.FormatInt(n, 10)
	f.data[key] = e
	return n, nil
}

func (f *fakeKV) Expire(ctx context.Context, key string, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.live(key); ok {
		e.expiresAt = f.now.Add(exp)
		f.data[key] = e
	}
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.live(key); ok && e.value == expected {
		delete(f.data, key)
		return true, nil
	}
	return false, nil
}

func (f *fakeKV) Close() error { return nil }

// ---- stateful identity service ----

type fakeIdentity struct {
	mu     sync.Mutex
	byConv map[int64]*model.Identity
	nextID int

	signUps int
	signIns int
	updates int
	exists  int
	// reserved usernames answer the existence check with a 409
	reserved map[string]string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{byConv: make(map[int64]*model.Identity), reserved: make(map[string]string)}
}

func (f *fakeIdentity) seed(conversationID int64, username, birthday string) *model.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := &model.Identity{ID: fmt.Sprintf("u%d", f.nextID), Username: username, ConversationID: conversationID, Birthday: birthday}
	f.byConv[conversationID] = id
	return id
}

func (f *fakeIdentity) token(conversationID int64) *model.AuthToken {
	return &model.AuthToken{Token: fmt.Sprintf("tok-%d", conversationID), Expiry: time.Now().Add(time.Hour)}
}

func (f *fakeIdentity) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthToken, error) {
	f.mu.Lock()
	f.signUps++
	_, exists := f.byConv[req.ConversationID]
	f.mu.Unlock()
	if exists {
		return nil, domain.Remote(409, "conversation already registered")
	}
	f.seed(req.ConversationID, req.Username, req.Birthday)
	return f.token(req.ConversationID), nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns++
	if _, ok := f.byConv[req.ConversationID]; !ok {
		return nil, domain.Remote(404, "user not found")
	}
	return f.token(req.ConversationID), nil
}

func (f *fakeIdentity) existsChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists
}

func (f *fakeIdentity) UsernameExists(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists++
	if msg, ok := f.reserved[username]; ok {
		return false, domain.Remote(409, msg)
	}
	for _, id := range f.byConv {
		if id.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIdentity) FetchByConversation(ctx context.Context, token string, conversationID int64) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byConv[conversationID]
	if !ok || token != fmt.Sprintf("tok-%d", conversationID) {
		return nil, domain.Remote(404, "user not found")
	}
	cp := *id
	return &cp, nil
}

func (f *fakeIdentity) Update(ctx context.Context, token, id string, req model.UpdateRequest) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	for _, ident := range f.byConv {
		if ident.ID != id {
			continue
		}
		if req.Username != "" {
			ident.Username = req.Username
		}
		if req.Birthday != "" {
			ident.Birthday = req.Birthday
		}
		cp := *ident
		return &cp, nil
	}
	return nil, domain.Remote(404, "user not found")
}

func (f *fakeIdentity) Delete(ctx context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conv, ident := range f.byConv {
		if ident.ID == id {
			delete(f.byConv, conv)
			return nil
		}
	}
	return domain.Remote(404, "user not found")
}

// ---- Messenger ----

type mockMessenger struct {
	mu   sync.Mutex
	sent []model.Reply
}

func (m *mockMessenger) SendMessage(ctx context.Context, reply model.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, reply)
	return nil
}

func (m *mockMessenger) replies() []model.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Reply(nil), m.sent...)
}

func (m *mockMessenger) last() model.Reply {
	r := m.replies()
	if len(r) == 0 {
		return model.Reply{}
	}
	return r[len(r)-1]
}

// ---- CredentialCache with a fixed set of registered conversations ----

type mockCreds struct {
	registered map[int64]bool
	err        error
}

func (m *mockCreds) Get(ctx context.Context, conversationID int64) (*model.Credential, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !m.registered[conversationID] {
		return nil, domain.ErrNotAuthenticated
	}
	return &model.Credential{ConversationID: conversationID, Token: "tok"}, nil
}

func (m *mockCreds) Store(ctx context.Context, conversationID int64, tok *model.AuthToken) (*model.Credential, error) {
	return &model.Credential{ConversationID: conversationID, Token: tok.Token}, nil
}

func (m *mockCreds) Invalidate(ctx context.Context, conversationID int64) error { return nil }

// ---- recording use cases ----

type call struct {
	name string
	in   usecase.Input
}

type recorder struct {
	mu    sync.Mutex
	calls []call
	hook  func(name string) // runs inside the handler, optional
}

func (r *recorder) record(name string) func(context.Context, usecase.Input) error {
	return func(ctx context.Context, in usecase.Input) error {
		r.mu.Lock()
		r.calls = append(r.calls, call{name: name, in: in})
		hook := r.hook
		r.mu.Unlock()
		if hook != nil {
			hook(name)
		}
		return nil
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.name
	}
	return out
}

type recGeneral struct{ r *recorder }

func (g recGeneral) MainMenu(ctx context.Context, in usecase.Input) error {
	return g.r.record("MainMenu")(ctx, in)
}
func (g recGeneral) Help(ctx context.Context, in usecase.Input) error {
	return g.r.record("Help")(ctx, in)
}
func (g recGeneral) Cancel(ctx context.Context, in usecase.Input) error {
	return g.r.record("Cancel")(ctx, in)
}

type recRegistration struct{ r *recorder }

func (g recRegistration) Start(ctx context.Context, in usecase.Input) error {
	return g.r.record("Registration.Start")(ctx, in)
}
func (g recRegistration) SubmitUsername(ctx context.Context, in usecase.Input) error {
	return g.r.record("Registration.SubmitUsername")(ctx, in)
}
func (g recRegistration) SubmitBirthday(ctx context.Context, in usecase.Input) error {
	return g.r.record("Registration.SubmitBirthday")(ctx, in)
}

type recProfile struct{ r *recorder }

func (g recProfile) View(ctx context.Context, in usecase.Input) error {
	return g.r.record("Profile.View")(ctx, in)
}
func (g recProfile) EditUsername(ctx context.Context, in usecase.Input) error {
	return g.r.record("Profile.EditUsername")(ctx, in)
}
func (g recProfile) EditBirthday(ctx context.Context, in usecase.Input) error {
	return g.r.record("Profile.EditBirthday")(ctx, in)
}
func (g recProfile) SubmitUsername(ctx context.Context, in usecase.Input) error {
	return g.r.record("Profile.SubmitUsername")(ctx, in)
}
func (g recProfile) SubmitBirthday(ctx context.Context, in usecase.Input) error {
	return g.r.record("Profile.SubmitBirthday")(ctx, in)
}
func (g recProfile) ConfirmDelete(ctx context.Context, in usecase.Input) error {
	return g.r.record("Profile.ConfirmDelete")(ctx, in)
}
func (g recProfile) Delete(ctx context.Context, in usecase.Input) error {
	return g.r.record("Profile.Delete")(ctx, in)
}

// ---- helpers ----

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("failed to load translator: %v", err)
	}
	return tr
}
