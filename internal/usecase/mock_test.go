//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
	"telegram-identity-bot/internal/domain/ports/repository"
	"telegram-identity-bot/internal/infra/i18n"
)

// fixedNow is the clock every use case test runs at.
var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// ---- Mock Messenger ----

type MockMessenger struct {
	mu   sync.Mutex
	Sent []model.Reply

	SendMessageFunc func(ctx context.Context, reply model.Reply) error
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) SendMessage(ctx context.Context, reply model.Reply) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, reply)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, reply)
	return nil
}

func (m *MockMessenger) Last() model.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return model.Reply{}
	}
	return m.Sent[len(m.Sent)-1]
}

// ---- Mock IdentityService ----

type MockIdentity struct {
	mu sync.Mutex

	SignUpFunc         func(ctx context.Context, req model.SignUpRequest) (*model.AuthToken, error)
	SignInFunc         func(ctx context.Context, req model.SignInRequest) (*model.AuthToken, error)
	UsernameExistsFunc func(ctx context.Context, username string) (bool, error)
	FetchFunc          func(ctx context.Context, token string, conversationID int64) (*model.Identity, error)
	UpdateFunc         func(ctx context.Context, token, id string, req model.UpdateRequest) (*model.Identity, error)
	DeleteFunc         func(ctx context.Context, token, id string) error

	SignUps      []model.SignUpRequest
	Updates      []model.UpdateRequest
	ExistsChecks []string
	Deletes      []string
}

var _ adapter.IdentityService = (*MockIdentity)(nil)

func (m *MockIdentity) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthToken, error) {
	m.mu.Lock()
	m.SignUps = append(m.SignUps, req)
	m.mu.Unlock()
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, req)
	}
	return &model.AuthToken{Token: "token-" + req.Username, Expiry: fixedNow.Add(time.Hour)}, nil
}

func (m *MockIdentity) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthToken, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, req)
	}
	return nil, domain.Remote(404, "user not found")
}

func (m *MockIdentity) UsernameExists(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	m.ExistsChecks = append(m.ExistsChecks, username)
	m.mu.Unlock()
	if m.UsernameExistsFunc != nil {
		return m.UsernameExistsFunc(ctx, username)
	}
	return false, nil
}

func (m *MockIdentity) FetchByConversation(ctx context.Context, token string, conversationID int64) (*model.Identity, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, token, conversationID)
	}
	return nil, domain.Remote(404, "user not found")
}

func (m *MockIdentity) Update(ctx context.Context, token, id string, req model.UpdateRequest) (*model.Identity, error) {
	m.mu.Lock()
	m.Updates = append(m.Updates, req)
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, token, id, req)
	}
	return &model.Identity{ID: id, Username: req.Username, Birthday: req.Birthday}, nil
}

func (m *MockIdentity) Delete(ctx context.Context, token, id string) error {
	m.mu.Lock()
	m.Deletes = append(m.Deletes, id)
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token, id)
	}
	return nil
}

// ---- Mock PendingCommandRepository ----

type MockPendingRepo struct {
	mu     sync.Mutex
	states map[int64]*model.PendingCommand

	SetErr error
}

var _ repository.PendingCommandRepository = (*MockPendingRepo)(nil)

func NewMockPendingRepo() *MockPendingRepo {
	return &MockPendingRepo{states: make(map[int64]*model.PendingCommand)}
}

func (m *MockPendingRepo) Set(ctx context.Context, state *model.PendingCommand) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.ConversationID] = &cp
	return nil
}

func (m *MockPendingRepo) Get(ctx context.Context, conversationID int64) (*model.PendingCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[conversationID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockPendingRepo) Clear(ctx context.Context, conversationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationID)
	return nil
}

// ---- Mock CredentialCache ----

type MockCredentials struct {
	mu    sync.Mutex
	creds map[int64]*model.Credential

	GetErr      error
	Invalidated []int64
}

var _ repository.CredentialCache = (*MockCredentials)(nil)

func NewMockCredentials() *MockCredentials {
	return &MockCredentials{creds: make(map[int64]*model.Credential)}
}

func (m *MockCredentials) Get(ctx context.Context, conversationID int64) (*model.Credential, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[conversationID]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return c, nil
}

func (m *MockCredentials) Store(ctx context.Context, conversationID int64, tok *model.AuthToken) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Credential{ConversationID: conversationID, Token: tok.Token, Expiry: tok.Expiry}
	m.creds[conversationID] = c
	return c, nil
}

func (m *MockCredentials) Invalidate(ctx context.Context, conversationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, conversationID)
	m.Invalidated = append(m.Invalidated, conversationID)
	return nil
}

// ---- Mock SnapshotCache ----

type MockSnapshots struct {
	mu        sync.Mutex
	snapshots map[int64]*model.Identity

	GetErr error
}

var _ repository.SnapshotCache = (*MockSnapshots)(nil)

func NewMockSnapshots() *MockSnapshots {
	return &MockSnapshots{snapshots: make(map[int64]*model.Identity)}
}

func (m *MockSnapshots) Get(ctx context.Context, conversationID int64) (*model.Identity, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[conversationID]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	cp := *s
	return &cp, nil
}

func (m *MockSnapshots) Set(ctx context.Context, conversationID int64, identity *model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *identity
	m.snapshots[conversationID] = &cp
	return nil
}

func (m *MockSnapshots) Delete(ctx context.Context, conversationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, conversationID)
	return nil
}

// ---- Helpers ----

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
