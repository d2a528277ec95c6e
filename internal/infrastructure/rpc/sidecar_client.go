// Package rpc talks to a GASP node through Substrate API Sidecar: block,
// storage and transaction endpoints over HTTP, with runtime metadata used
// to encode calls and to name dispatch errors.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultBlockPollInterval is how often the finalized head is polled.
	DefaultBlockPollInterval = 2 * time.Second

	// DefaultFinalizationBlocks bounds how many finalized blocks are
	// searched for a submitted extrinsic.
	DefaultFinalizationBlocks = 10

	// DefaultRetries is how many times an idempotent GET is retried.
	DefaultRetries = 3
)

// SidecarClient is the HTTP transport to a sidecar instance.
type SidecarClient struct {
	baseURL      string
	client       *http.Client
	retries      uint64
	pollInterval time.Duration
	logger       log.Logger
}

// NewSidecarClient creates a client for the sidecar at baseURL.
func NewSidecarClient(baseURL string) *SidecarClient {
	return &SidecarClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		retries:      DefaultRetries,
		pollInterval: DefaultBlockPollInterval,
		logger:       log.NewNopLogger(),
	}
}

// WithPollInterval sets the head poll interval.
func (c *SidecarClient) WithPollInterval(interval time.Duration) *SidecarClient {
	if interval > 0 {
		c.pollInterval = interval
	}
	return c
}

// WithTimeout sets the per-request HTTP timeout.
func (c *SidecarClient) WithTimeout(d time.Duration) *SidecarClient {
	if d > 0 {
		c.client.Timeout = d
	}
	return c
}

// WithRetries sets how many times failed GETs are retried.
func (c *SidecarClient) WithRetries(n uint64) *SidecarClient {
	c.retries = n
	return c
}

// WithLogger sets the logger.
func (c *SidecarClient) WithLogger(l log.Logger) *SidecarClient {
	if l != nil {
		c.logger = l
	}
	return c
}

// BaseURL returns the sidecar URL.
func (c *SidecarClient) BaseURL() string {
	return c.baseURL
}

// getJSON GETs path and decodes the body into out, retrying transport
// failures and 5xx responses with exponential backoff.
func (c *SidecarClient) getJSON(ctx context.Context, operation, path string, out any) error {
	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), c.retries), ctx)
	return backoff.RetryNotify(func() error {
		err := c.do(ctx, operation, http.MethodGet, path, nil, out)
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b, func(err error, wait time.Duration) {
		c.logger.Debug("retrying sidecar request", "operation", operation, "wait", wait, "err", err)
	})
}

// postJSON POSTs body once; submissions are not idempotent.
func (c *SidecarClient) postJSON(ctx context.Context, operation, path string, body, out any) error {
	return c.do(ctx, operation, http.MethodPost, path, body, out)
}

func (c *SidecarClient) do(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RPCError{Operation: operation, Message: err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RPCError{Operation: operation, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
			return &ConnectionError{Endpoint: c.baseURL, Message: err.Error()}
		}
		return &RPCError{Operation: operation, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RPCError{Operation: operation, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: path}
	}
	if resp.StatusCode != http.StatusOK {
		return &RPCError{Operation: operation, Status: resp.StatusCode, Message: sidecarMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RPCError{Operation: operation, Message: "failed to parse response: " + err.Error()}
	}
	return nil
}

// sidecarMessage extracts the message of a sidecar error body.
func sidecarMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Cause   string `json:"cause"`
	}
	if json.Unmarshal(body, &e) == nil && (e.Message != "" || e.Cause != "") {
		if e.Cause != "" {
			return e.Message + ": " + e.Cause
		}
		return e.Message
	}
	return strings.TrimSpace(string(body))
}

func isRetryable(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Status >= 500
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
