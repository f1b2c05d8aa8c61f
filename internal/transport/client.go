// Package transport is the outbound HTTP client used to reach remote
// collaborators such as a module catalog API or a running gaze server.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/errors"
	"github.com/agentstation/gaze/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client is an HTTP client that applies authentication and JSON headers.
type Client struct {
	http    *http.Client
	auth    Authenticator
	service string
}

// New creates a client. service names the remote side in errors.
func New(service string, auth Authenticator) *Client {
	if auth == nil {
		auth = NoAuth{}
	}
	return &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
		service: service,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Do sends req with authentication and JSON headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.auth.Apply(req)
	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errors.APIError{
			Service:  c.service,
			Endpoint: req.URL.String(),
			Message:  "request failed",
			Err:      err,
		}
	}
	return resp, nil
}

// Get fetches url and decodes the JSON body into target.
func (c *Client) Get(ctx context.Context, url string, target any) error {
	return c.send(ctx, http.MethodGet, url, nil, target)
}

// Post sends body as JSON and decodes the response into target, if non-nil.
func (c *Client) Post(ctx context.Context, url string, body, target any) error {
	return c.send(ctx, http.MethodPost, url, body, target)
}

// Delete sends a DELETE and decodes the response into target, if non-nil.
func (c *Client) Delete(ctx context.Context, url string, target any) error {
	return c.send(ctx, http.MethodDelete, url, nil, target)
}

func (c *Client) send(ctx context.Context, method, url string, body, target any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.WrapResource("encode", "request", method+" "+url, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return errors.WrapResource("create", "request", method+" "+url, err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return c.decode(resp, target)
}

// decode reads resp and unmarshals a 2xx body into target.
func (c *Client) decode(resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("service", c.service).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errors.APIError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Endpoint:   resp.Request.URL.String(),
			Message:    string(bytes.TrimSpace(body)),
		}
	}

	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapResource("decode", "response", c.service, err)
	}
	return nil
}
