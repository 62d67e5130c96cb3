package mumlife

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/domain"
)

// CookieStore is the cookie jar shared by every request. It also holds
// the CSRF token echoed back on unsafe requests.
type CookieStore interface {
	http.CookieJar
	CSRFToken() string
}

// Client is a thin HTTP wrapper for the Mumlife site and its REST API.
// It handles base URL construction, session cookies and CSRF headers.
type Client struct {
	siteURL string
	apiURL  string
	store   CookieStore
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a client for the site at siteURL with its API at apiURL.
// Both URLs end with a slash.
func NewClient(siteURL, apiURL string, store CookieStore, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		siteURL: siteURL,
		apiURL:  apiURL,
		store:   store,
		http: &http.Client{
			Jar:       store,
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// HTTPClient exposes the underlying client, for the login form flow.
func (c *Client) HTTPClient() *http.Client { return c.http }

// SiteURL returns the site root.
func (c *Client) SiteURL() string { return c.siteURL }

// GetSite performs a GET relative to the site root.
func (c *Client) GetSite(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.siteURL, path, nil)
}

// Get performs a GET relative to the API root.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.apiURL, path, nil)
}

// Post sends payload as JSON to an API path.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, c.apiURL, path, payload)
}

// Patch sends a partial update as JSON to an API path.
func (c *Client) Patch(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, c.apiURL, path, payload)
}

func (c *Client) do(ctx context.Context, method, base, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+strings.TrimLeft(path, "/"), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !safeMethod(method) {
		token := ""
		if c.store != nil {
			token = c.store.CSRFToken()
		}
		if token == "" {
			return nil, fmt.Errorf("%s %s: %w", method, path, domain.ErrMissingCSRF)
		}
		req.Header.Set("X-CSRFToken", token)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return nil, fmt.Errorf("request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.log.Debug("request done", zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

// safeMethod mirrors the methods exempt from CSRF checks on the server.
func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// parseAPIError reads {"detail": "..."} and {"field": ["msg", ...]} bodies.
func parseAPIError(method, path string, status int, data []byte) *domain.APIError {
	apiErr := &domain.APIError{Method: method, Path: path, Status: status, Body: string(data)}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return apiErr
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		msgs := stringsOf(raw[k])
		if len(msgs) == 0 {
			continue
		}
		if k == "detail" {
			apiErr.Detail = msgs[0]
			continue
		}
		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string)
		}
		apiErr.Fields[k] = msgs
	}
	return apiErr
}

func stringsOf(raw json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}
