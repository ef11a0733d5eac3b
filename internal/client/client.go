// Package client is the HTTP transport shared by every Intelink API call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/intelink/console/internal/apperr"
	"github.com/intelink/console/internal/logger"
	"github.com/intelink/console/internal/metrics"
	"github.com/intelink/console/internal/version"
)

const (
	// DefaultTimeout bounds every request, including the refresh call.
	DefaultTimeout = 15 * time.Second
	// RefreshPath is the endpoint that trades a refresh token for new tokens.
	RefreshPath = "/api/v1/auth/refresh"

	maxErrorBody = 64 << 10
)

var (
	ErrNoRefreshToken = errors.New("no refresh token stored")
	ErrRefreshFailed  = errors.New("token refresh failed")
)

// publicPaths never carry a bearer token and never trigger a refresh.
var publicPaths = map[string]struct{}{
	"/api/v1/auth/login":           {},
	"/api/v1/auth/register":        {},
	"/api/v1/auth/refresh":         {},
	"/api/v1/auth/forgot-password": {},
	"/api/v1/auth/verify-email":    {},
}

// IsPublic reports whether path is on the unauthenticated allow-list.
func IsPublic(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	_, ok := publicPaths[strings.TrimRight(path, "/")]
	return ok
}

// Client sends JSON requests to the Intelink backend.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
	log     *logrus.Entry
	flight  singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the fixed per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func New(baseURL string, store TokenStore, opts ...Option) *Client {
	if store == nil {
		store = NewMemoryStore("", "")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   store,
		log:     logger.Component("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Store returns the token store backing this client.
func (c *Client) Store() TokenStore { return c.store }

// SetTokens stores a freshly issued token pair.
func (c *Client) SetTokens(ctx context.Context, access, refresh string) error {
	return c.store.Save(ctx, access, refresh)
}

// ClearTokens forgets the current session.
func (c *Client) ClearTokens(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Do sends body as JSON and decodes a successful response into out. Either
// may be nil. Protected requests answered with 401 get exactly one refresh
// and one retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return apperr.New(op(method, path), apperr.KindValidation, "", fmt.Errorf("encode body: %w", err))
		}
	}

	public := IsPublic(path)
	token := ""
	if !public {
		var err error
		if token, _, err = c.store.Tokens(ctx); err != nil {
			return apperr.New(op(method, path), apperr.KindTransport, "", fmt.Errorf("read tokens: %w", err))
		}
	}

	err := c.send(ctx, method, path, payload, token, out)
	if public || apperr.StatusOf(err) != http.StatusUnauthorized {
		return err
	}

	fresh, rerr := c.refresh(ctx, token)
	if rerr != nil {
		c.log.WithError(rerr).WithField("path", path).Warn("session refresh failed, clearing tokens")
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.WithError(cerr).Error("failed to clear tokens")
		}
		return err
	}
	return c.send(ctx, method, path, payload, fresh, out)
}

// refresh returns an access token newer than stale. Concurrent callers share
// one in-flight refresh; a caller whose token was already replaced reuses the
// stored one without another round trip.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.flight.Do("refresh", func() (interface{}, error) {
		rctx := context.WithoutCancel(ctx)
		access, refreshToken, err := c.store.Tokens(rctx)
		if err != nil {
			return "", err
		}
		if access != "" && access != stale {
			return access, nil
		}
		if refreshToken == "" {
			return "", ErrNoRefreshToken
		}

		var tokens TokenPair
		body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
		if err := c.send(rctx, http.MethodPost, RefreshPath, body, "", &tokens); err != nil {
			metrics.IncRefresh(false)
			return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}
		if tokens.AccessToken == "" {
			metrics.IncRefresh(false)
			return "", fmt.Errorf("%w: empty access token", ErrRefreshFailed)
		}
		if tokens.RefreshToken == "" {
			tokens.RefreshToken = refreshToken
		}
		if err := c.store.Save(rctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
			return "", err
		}
		metrics.IncRefresh(true)
		c.log.Debug("session refreshed")
		return tokens.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// TokenPair is the token payload returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, out interface{}) error {
	opName := op(method, path)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.New(opName, apperr.KindTransport, "", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream(method, 0)
		// The caller gave up on the request; nothing to report.
		if errors.Is(ctx.Err(), context.Canceled) {
			return apperr.Suppress(opName, err)
		}
		return apperr.New(opName, apperr.KindTransport, "", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(method, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("backend returned error status")
		return apperr.FromStatus(opName, resp.StatusCode, errorMessage(raw))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return apperr.New(opName, apperr.KindTransport, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// errorMessage extracts the human-readable part of an error body: message,
// then error, then a string detail.
func errorMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Detail  json.RawMessage `json:"detail"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &body) != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	var detail string
	if json.Unmarshal(body.Detail, &detail) == nil {
		return detail
	}
	return ""
}

func op(method, path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return method + " " + path
}
