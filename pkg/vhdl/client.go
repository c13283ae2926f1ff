// Package vhdl talks to a VHDL generation service. The service receives a
// diagram snapshot as the form field "fsm" and answers with VHDL source.
package vhdl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ha1tch/fsm-designer/pkg/diagram"
)

// Sentinel errors for Generate.
var (
	// ErrNoOutput is returned when the service answers with an empty body.
	ErrNoOutput = errors.New("generator produced no output")

	// ErrService is returned for non-200 responses.
	ErrService = errors.New("generator service error")
)

// Filename is the attachment name the service uses for its output.
const Filename = "FiniteStateMachine.vhd"

// retryable marks transient failures (network errors and 5xx answers).
type retryable struct{ err error }

func (e *retryable) Error() string { return e.err.Error() }
func (e *retryable) Unwrap() error { return e.err }

// Client posts snapshots to a generator endpoint.
type Client struct {
	url      string
	http     *http.Client
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the number of attempts and the initial backoff delay,
// which doubles after each failed attempt.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the generator at endpoint.
func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		url:      endpoint,
		http:     &http.Client{Timeout: timeout},
		attempts: 3,
		delay:    time.Second,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends b to the service and returns the generated VHDL.
func (c *Client) Generate(ctx context.Context, b *diagram.Backup) ([]byte, error) {
	data, err := b.JSON(false)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	form := url.Values{"fsm": {string(data)}}.Encode()

	var out []byte
	delay := c.delay
	for i := 0; i < c.attempts; i++ {
		out, err = c.post(ctx, form)
		if err == nil || !errors.As(err, new(*retryable)) {
			break
		}
		c.logger.Debug("vhdl request failed", "attempt", i+1, "err", err)
		if i == c.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, ErrNoOutput
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, form string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &retryable{fmt.Errorf("%w: %v", ErrService, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryable{fmt.Errorf("%w: reading body: %v", ErrService, err)}
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode >= 500:
		return nil, &retryable{fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)}
	default:
		return nil, fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
