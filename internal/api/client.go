// Package api is the HTTP client for the main and LLM assessment backends.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/zuvy/assess/internal/store"
)

// Recorder receives one event per HTTP exchange.
type Recorder interface {
	AppendAPIRequest(ctx context.Context, data store.APIRequestEventData) error
}

// Client talks to both backends and refreshes the access token on 401.
type Client struct {
	apiURL    string
	llmURL    string
	http      *http.Client
	tokens    TokenStore
	events    SessionEvents
	recorder  Recorder
	logger    *slog.Logger
	refreshes singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option    { return func(c *Client) { c.http = hc } }
func WithTokenStore(ts TokenStore) Option      { return func(c *Client) { c.tokens = ts } }
func WithSessionEvents(e SessionEvents) Option { return func(c *Client) { c.events = e } }
func WithRecorder(r Recorder) Option           { return func(c *Client) { c.recorder = r } }
func WithLogger(l *slog.Logger) Option         { return func(c *Client) { c.logger = l } }
func WithTimeout(d time.Duration) Option       { return func(c *Client) { c.http.Timeout = d } }

// New creates a client. apiURL serves /auth; llmURL serves assessments.
func New(apiURL, llmURL string, opts ...Option) *Client {
	c := &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		llmURL: strings.TrimRight(llmURL, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: NewMemoryTokens("", ""),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"
)

// skipsRefresh reports whether a 401 on path must be returned as is.
func skipsRefresh(path string) bool {
	return strings.HasPrefix(path, loginPath) || strings.HasPrefix(path, refreshPath)
}

type exchange struct {
	status int
	body   []byte
}

// do sends a JSON request and decodes a JSON response into out. On 401 it
// refreshes the token once and replays the request.
func (c *Client) do(ctx context.Context, method, base, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	authed := !skipsRefresh(path)
	var access string
	if authed {
		a, r, err := c.tokens.Tokens(ctx)
		if err != nil {
			return fmt.Errorf("read tokens: %w", err)
		}
		if a == "" && r == "" {
			return ErrNotSignedIn
		}
		access = a
	}

	ex, err := c.send(ctx, method, base, path, payload, access, false)
	if err != nil {
		return err
	}
	if ex.status == http.StatusUnauthorized && authed {
		fresh, err := c.refresh(ctx, access)
		if err != nil {
			return err
		}
		if ex, err = c.send(ctx, method, base, path, payload, fresh, true); err != nil {
			return err
		}
		if ex.status == http.StatusUnauthorized {
			return c.expire(ctx, errors.New("token rejected after refresh"))
		}
	}

	if ex.status < 200 || ex.status >= 300 {
		return decodeError(method, path, ex)
	}
	if out != nil && len(bytes.TrimSpace(ex.body)) > 0 {
		if err := json.Unmarshal(ex.body, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, base, path string, payload []byte, access string, retried bool) (exchange, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, rdr)
	if err != nil {
		return exchange{}, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	var ex exchange
	if err == nil {
		ex.status = resp.StatusCode
		ex.body, err = io.ReadAll(io.LimitReader(resp.Body, 16<<20))
		resp.Body.Close()
	}

	c.record(ctx, store.APIRequestEventData{
		RequestID:    reqID,
		Method:       method,
		Path:         req.URL.Path,
		Status:       ex.status,
		LatencyMs:    time.Since(start).Milliseconds(),
		Retried:      retried,
		Success:      err == nil && ex.status >= 200 && ex.status < 300,
		ErrorMessage: errString(err),
	})

	if err != nil {
		return exchange{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("api request", "method", method, "path", req.URL.Path, "status", ex.status,
		"request_id", reqID, "retried", retried)
	return ex, nil
}

func (c *Client) record(ctx context.Context, data store.APIRequestEventData) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.AppendAPIRequest(context.WithoutCancel(ctx), data); err != nil {
		c.logger.Warn("failed to record api request", "error", err)
	}
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refresh exchanges the refresh token for a new pair. Concurrent callers
// share one exchange. stale is the access token the caller was rejected
// with; if the store already holds a different one it is returned as is.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		access, refreshToken, err := c.tokens.Tokens(ctx)
		if err != nil {
			return "", fmt.Errorf("read tokens: %w", err)
		}
		if access != "" && access != stale {
			return access, nil
		}
		if refreshToken == "" {
			return "", c.expire(ctx, errors.New("no refresh token"))
		}

		payload, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
		ex, err := c.send(ctx, http.MethodPost, c.apiURL, refreshPath, payload, "", false)
		if err != nil {
			return "", c.expire(ctx, err)
		}
		if ex.status < 200 || ex.status >= 300 {
			return "", c.expire(ctx, decodeError(http.MethodPost, refreshPath, ex))
		}
		var pair tokenPair
		if err := json.Unmarshal(ex.body, &pair); err != nil || pair.AccessToken == "" {
			return "", c.expire(ctx, fmt.Errorf("malformed refresh response: %v", err))
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = refreshToken
		}
		if err := c.tokens.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
			return "", fmt.Errorf("store tokens: %w", err)
		}
		c.logger.Info("access token refreshed")
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// expire clears stored tokens, notifies listeners and returns
// ErrSessionExpired wrapping cause.
func (c *Client) expire(ctx context.Context, cause error) error {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear tokens", "error", err)
	}
	c.logger.Warn("session expired", "cause", cause)
	if c.events != nil {
		c.events.SessionExpired(cause)
	}
	return fmt.Errorf("%w (%v)", ErrSessionExpired, cause)
}

func decodeError(method, path string, ex exchange) error {
	var body struct {
		Message any `json:"message"`
	}
	apiErr := &Error{Status: ex.status, Method: method, Path: path}
	if json.Unmarshal(ex.body, &body) == nil {
		switch m := body.Message.(type) {
		case string:
			apiErr.Message = m
		case []any:
			// Validation pipes report a list of messages.
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			apiErr.Message = strings.Join(parts, "; ")
		}
	}
	return apiErr
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
