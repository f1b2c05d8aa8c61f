// Package remote talks to a running gaze server on behalf of CLI commands.
package remote

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/gaze/internal/transport"
	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/engine"
	"github.com/agentstation/gaze/pkg/errors"
	"github.com/agentstation/gaze/pkg/policies"
)

// Client calls the gaze HTTP API and unwraps its {data, error} envelope.
type Client struct {
	base string
	http *transport.Client
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api/v1.
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: transport.New("gaze-api", transport.NoAuth{}),
	}
}

// WithTransport replaces the HTTP transport.
func (c *Client) WithTransport(t *transport.Client) *Client {
	c.http = t
	return c
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

// AlertList is the body of GET /alerts.
type AlertList struct {
	Alerts []alerts.Alert `json:"alerts"`
	Count  int            `json:"count"`
	Total  int            `json:"total"`
}

// CatalogPage is the body of GET /catalog.
type CatalogPage struct {
	Query      string          `json:"query"`
	Modules    []catalog.Entry `json:"modules"`
	Count      int             `json:"count"`
	Total      int             `json:"total"`
	Categories int             `json:"categories"`
}

// Sessions returns the current snapshot.
func (c *Client) Sessions(ctx context.Context) (engine.Snapshot, error) {
	var env envelope[engine.Snapshot]
	err := c.call(ctx, "GET", "/sessions", nil, &env)
	return env.Data, err
}

// Alerts returns up to limit recent alerts, newest first. Zero means all.
func (c *Client) Alerts(ctx context.Context, limit int) (AlertList, error) {
	var env envelope[AlertList]
	err := c.call(ctx, "GET", "/alerts?limit="+strconv.Itoa(limit), nil, &env)
	return env.Data, err
}

// Catalog searches the server's catalog.
func (c *Client) Catalog(ctx context.Context, query string) (CatalogPage, error) {
	var env envelope[CatalogPage]
	err := c.call(ctx, "GET", "/catalog?q="+url.QueryEscape(query), nil, &env)
	return env.Data, err
}

// Policies lists the timer policies.
func (c *Client) Policies(ctx context.Context) ([]policies.Policy, error) {
	var env envelope[[]policies.Policy]
	err := c.call(ctx, "GET", "/policies", nil, &env)
	return env.Data, err
}

// PutPolicy creates or replaces a policy.
func (c *Client) PutPolicy(ctx context.Context, key string, limitMinutes int) (policies.Policy, error) {
	body := map[string]any{"module_key": key, "limit_minutes": limitMinutes}
	var env envelope[policies.Policy]
	err := c.call(ctx, "POST", "/policies", body, &env)
	return env.Data, err
}

// EnablePolicy resumes a policy.
func (c *Client) EnablePolicy(ctx context.Context, key string) (policies.Policy, error) {
	return c.policyAction(ctx, key, "enable")
}

// DisablePolicy pauses a policy.
func (c *Client) DisablePolicy(ctx context.Context, key string) (policies.Policy, error) {
	return c.policyAction(ctx, key, "disable")
}

// TogglePolicy flips a policy between paused and active.
func (c *Client) TogglePolicy(ctx context.Context, key string) (policies.Policy, error) {
	return c.policyAction(ctx, key, "toggle")
}

// RemovePolicy deletes a policy.
func (c *Client) RemovePolicy(ctx context.Context, key string) (policies.Policy, error) {
	var env envelope[policies.Policy]
	err := c.call(ctx, "DELETE", "/policies/"+url.PathEscape(key), nil, &env)
	return env.Data, err
}

func (c *Client) policyAction(ctx context.Context, key, action string) (policies.Policy, error) {
	var env envelope[policies.Policy]
	err := c.call(ctx, "POST", "/policies/"+url.PathEscape(key)+"/"+action, nil, &env)
	return env.Data, err
}

func (c *Client) call(ctx context.Context, method, path string, body any, target any) error {
	endpoint := c.base + path

	var err error
	switch method {
	case "GET":
		err = c.http.Get(ctx, endpoint, target)
	case "POST":
		err = c.http.Post(ctx, endpoint, body, target)
	case "DELETE":
		err = c.http.Delete(ctx, endpoint, target)
	default:
		return errors.NewValidationError("method", method, "unsupported")
	}
	return unwrap(err)
}

// unwrap replaces the raw envelope body of an API error with its message.
func unwrap(err error) error {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) || apiErr.Message == "" {
		return err
	}

	var env envelope[json.RawMessage]
	if json.Unmarshal([]byte(apiErr.Message), &env) != nil || env.Error == nil {
		return err
	}

	out := *apiErr
	out.Message = env.Error.Message
	return &out
}
