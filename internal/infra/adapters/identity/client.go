package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telegram-identity-bot/internal/domain"
	"telegram-identity-bot/internal/domain/model"
	"telegram-identity-bot/internal/domain/ports/adapter"
	"telegram-identity-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time assurance this client satisfies the port
var _ adapter.IdentityService = (*Client)(nil)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client calls the identity service over HTTP. It never retries.
type Client struct {
	base   string // e.g. http://identity:8080/api/v1/users
	client *http.Client
	log    *zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("identity base url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("identity base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base:   baseURL,
		client: &http.Client{Timeout: timeout},
		log:    logger,
	}, nil
}

func (c *Client) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthToken, error) {
	var tok model.AuthToken
	if err := c.do(ctx, "sign_up", http.MethodPost, "/sign-up", "", req, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *Client) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthToken, error) {
	var tok model.AuthToken
	if err := c.do(ctx, "sign_in", http.MethodPost, "/sign-in", "", req, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *Client) UsernameExists(ctx context.Context, username string) (bool, error) {
	var out struct {
		Result bool `json:"result"`
	}
	path := "/exists?" + url.Values{"username": {username}}.Encode()
	if err := c.do(ctx, "exists", http.MethodGet, path, "", nil, &out); err != nil {
		return false, err
	}
	return out.Result, nil
}

func (c *Client) FetchByConversation(ctx context.Context, token string, conversationID int64) (*model.Identity, error) {
	var identity model.Identity
	path := "/" + strconv.FormatInt(conversationID, 10)
	if err := c.do(ctx, "fetch", http.MethodGet, path, token, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *Client) Update(ctx context.Context, token, id string, req model.UpdateRequest) (*model.Identity, error) {
	var identity model.Identity
	if err := c.do(ctx, "update", http.MethodPut, "/"+url.PathEscape(id), token, req, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *Client) Delete(ctx context.Context, token, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, "/"+url.PathEscape(id), token, nil, nil)
}

// do performs one request. Non-2xx responses become *domain.Error carrying
// the server message; network failures become transport errors.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(domain.KindOf(err))
		}
		metrics.ObserveIdentityCall(op, outcome, time.Since(start))
	}()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return domain.Wrap(domain.KindInternal, "encode request", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return domain.Wrap(domain.KindInternal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("identity call failed")
		return domain.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp)
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("message", msg).Msg("identity call rejected")
		return domain.Remote(resp.StatusCode, msg)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A body cut off mid-read is a transport problem, not a bad payload.
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain.Transport(err)
		}
		return domain.Wrap(domain.KindRemote, "malformed identity response", err)
	}
	return nil
}

// readErrorMessage extracts the server-provided message, falling back to
// the status text.
func readErrorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(payload.Error); m != "" {
			return m
		}
	}
	if m := strings.TrimSpace(string(raw)); m != "" && !strings.HasPrefix(m, "{") && len(m) < 512 {
		return m
	}
	return http.StatusText(resp.StatusCode)
}
