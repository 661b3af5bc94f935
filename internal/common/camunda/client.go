package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client with connection retry.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines backoff for transient broker failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  1 * time.Second,
	MaxDelay:   30 * time.Second,
}

// NewClient dials the gateway and waits until the broker answers a topology
// request, retrying transient failures with exponential backoff.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}
	if err := Retry(ctx, config.RetryConfig, "zeebe topology", c.Ping); err != nil {
		_ = zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) Zeebe() zbc.Client {
	return c.client
}

func (c *Client) Name() string { return "zeebe" }

// Ping asks the broker for its topology.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Retry runs op until it succeeds, a non-transient error occurs, retries run
// out or ctx is done. The delay doubles per attempt up to MaxDelay.
func Retry(ctx context.Context, rc *RetryConfig, name string, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == rc.MaxRetries {
			break
		}

		delay := rc.BaseDelay * time.Duration(1<<attempt)
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, attempt+1, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed: %w", name, lastErr)
}

// IsRetryable reports whether err looks like a transient connectivity failure.
func IsRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
		"no such host",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
