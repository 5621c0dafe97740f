// Package apiclient talks to the remote invoicing REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/invoice-web/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	jsonContentType = "application/json; charset=utf-8"
	maxBodyBytes    = 4 << 20
)

// TokenSource supplies the bearer token of the current session and is told
// when the remote API rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
	Expire(ctx context.Context)
}

// Config configures the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	Metrics    *metrics.Collectors
}

// Client is safe for concurrent use; per-request state travels in the context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	log        logrus.FieldLogger
	metrics    *metrics.Collectors
}

// New creates a client. tokens may be nil for anonymous use.
func New(cfg Config, tokens TokenSource) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 55 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     tokens,
		log:        log,
		metrics:    cfg.Metrics,
	}
}

// request describes one API call. op names the endpoint for logs and metrics.
type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
}

func jsonRequest(op, method, path string, in any) (request, error) {
	r := request{op: op, method: method, path: path}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return r, fmt.Errorf("%s: encode body: %w", op, err)
		}
		r.body = bytes.NewReader(b)
		r.contentType = jsonContentType
	}
	return r, nil
}

// do sends the request and returns the response body of a 2xx reply.
// Any other status becomes an *APIError; a 401 also expires the session.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	authed := false
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(ctx); ok && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			authed = true
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(r.op, 0, time.Since(start))
		c.log.WithFields(logrus.Fields{"op": r.op, "auth": authed}).WithError(err).Warn("api request failed")
		return nil, fmt.Errorf("%s: %w", r.op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	c.metrics.ObserveAPI(r.op, resp.StatusCode, elapsed)
	c.log.WithFields(logrus.Fields{
		"op":       r.op,
		"method":   r.method,
		"path":     r.path,
		"status":   resp.StatusCode,
		"auth":     authed,
		"duration": elapsed.String(),
	}).Debug("api request")
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", r.op, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		c.tokens.Expire(ctx)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(r.op, resp.StatusCode, body)
	}
	return body, nil
}

// doJSON sends in as JSON and decodes the reply into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	r, err := jsonRequest(op, method, path, in)
	if err != nil {
		return err
	}
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(op, body, out)
}

// decode unmarshals a reply body; an empty body leaves out untouched.
func decode(op string, body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
