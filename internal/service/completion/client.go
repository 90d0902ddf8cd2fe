package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// DefaultEndpoint is the hosted portfolio chat backend.
const DefaultEndpoint = "https://ai-personalised-chat-bot-backend.vercel.app/api/chat"

const maxBodyBytes = 1 << 20

// Completer produces a reply for a single user message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// Func adapts a plain function to Completer.
type Func func(ctx context.Context, message string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

type request struct {
	Message string `json:"message"`
}

type response struct {
	Reply *string `json:"reply"`
	Error string  `json:"error"`
}

// Client posts messages to a remote chat endpoint. Cookies set by the
// endpoint are kept and replayed, so the backend can follow the visitor.
type Client struct {
	endpoint   string
	header     http.Header
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its cookie jar, if any,
// is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a single request. Zero leaves the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBearerToken sends an Authorization header on every request.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		if token = strings.TrimSpace(token); token != "" {
			c.header.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for endpoint. An empty endpoint means
// DefaultEndpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	c := &Client{
		endpoint: endpoint,
		header: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		timeout: 30 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		c.httpClient = &http.Client{Jar: jar, Timeout: c.timeout}
	}

	return c, nil
}

// Endpoint reports the URL messages are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

var _ Completer = (*Client)(nil)

// Complete posts message and returns the reply. Any failure is an *Error
// wrapping ErrRequestFailed.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(request{Message: message})
	if err != nil {
		return "", &Error{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Err: err}
	}
	for k, v := range c.header {
		req.Header[k] = append([]string(nil), v...)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return "", &Error{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{StatusCode: resp.StatusCode, Err: err}
	}

	var decoded response
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("completion endpoint returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("description", decoded.Error),
			zap.Duration("elapsed", time.Since(start)))
		return "", &Error{StatusCode: resp.StatusCode, Description: decoded.Error}
	}

	if decodeErr != nil {
		return "", &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	if decoded.Reply == nil {
		return "", &Error{StatusCode: resp.StatusCode, Description: decoded.Error, Err: errors.New("response has no reply field")}
	}

	c.logger.Debug("completion received",
		zap.Int("status", resp.StatusCode),
		zap.Int("length", len(*decoded.Reply)),
		zap.Duration("elapsed", time.Since(start)))
	return *decoded.Reply, nil
}
