// Package stub is the client for remote generation apps. Each app is
// addressed by its identifier and exposes an execution endpoint, a manifest
// and input/output schemas.
package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownApp is returned when calling an app the client was not configured with.
var ErrUnknownApp = errors.New("stub: app is not registered")

// Result is the decoded output of an app execution.
type Result map[string]any

// Client talks to remote apps.
type Client interface {
	// Call executes appID with payload on behalf of uid.
	Call(ctx context.Context, appID string, payload map[string]any, uid string) (Result, error)
	// Manifest returns the app's metadata.
	Manifest(ctx context.Context, appID string) (map[string]any, error)
	// Schema returns the app's "input" or "output" schema.
	Schema(ctx context.Context, appID, kind string) (map[string]any, error)
}

// HTTPConfig configures the HTTP client.
type HTTPConfig struct {
	// Scheme used to reach apps, "https" unless overridden.
	Scheme  string        `yaml:"scheme"`
	Timeout time.Duration `yaml:"timeout"`
}

// HTTPClient implements Client over JSON/HTTP. Only the app ids it was
// created with can be reached.
type HTTPClient struct {
	apps   []string
	cfg    HTTPConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPClient creates a client for the given app ids.
func NewHTTPClient(appIDs []string, cfg HTTPConfig, logger *zap.Logger) *HTTPClient {
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		apps:   slices.Clone(appIDs),
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "stub")),
	}
}

// Apps returns the registered app ids.
func (c *HTTPClient) Apps() []string {
	return slices.Clone(c.apps)
}

// Call posts payload to the app's execution endpoint.
func (c *HTTPClient) Call(ctx context.Context, appID string, payload map[string]any, uid string) (Result, error) {
	endpoint, err := c.endpoint(appID, "execution", url.Values{"uid": {uid}})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("calling app", zap.String("app_id", appID), zap.String("uid", uid))

	var out Result
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("call %s: %w", appID, err)
	}
	return out, nil
}

// Manifest fetches the app manifest.
func (c *HTTPClient) Manifest(ctx context.Context, appID string) (map[string]any, error) {
	return c.get(ctx, appID, "manifest", nil)
}

// Schema fetches the app's input or output schema.
func (c *HTTPClient) Schema(ctx context.Context, appID, kind string) (map[string]any, error) {
	if kind != "input" && kind != "output" {
		return nil, fmt.Errorf("stub: unknown schema kind %q", kind)
	}
	return c.get(ctx, appID, "schema", url.Values{"type": {kind}})
}

func (c *HTTPClient) get(ctx context.Context, appID, path string, query url.Values) (map[string]any, error) {
	endpoint, err := c.endpoint(appID, path, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var out map[string]any
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("%s %s: %w", path, appID, err)
	}
	return out, nil
}

func (c *HTTPClient) endpoint(appID, path string, query url.Values) (string, error) {
	if !slices.Contains(c.apps, appID) {
		return "", fmt.Errorf("%w: %s", ErrUnknownApp, appID)
	}
	u := url.URL{
		Scheme: c.cfg.Scheme,
		Host:   strings.TrimRight(appID, "/"),
		Path:   "/" + path,
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
