package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/config"
	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/model/chat"
)

const maxResponseBytes = 1 << 20

var (
	// ErrEndpointStatus marks a non-2xx answer from the conversational endpoint.
	ErrEndpointStatus = errors.New("API Error")
	// ErrMalformedResponse marks a body that is not a JSON object.
	ErrMalformedResponse = errors.New("malformed response body")
)

// Client forwards a single user turn to the external conversational endpoint.
type Client struct {
	endpoint        string
	apiKey          string
	subscriptionKey string
	httpClient      *http.Client
	logger          *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// NewClient creates a client for the configured endpoint.
func NewClient(cfg config.EndpointConfig, opts ...Option) *Client {
	c := &Client{
		endpoint:        cfg.URL,
		apiKey:          cfg.APIKey,
		subscriptionKey: cfg.SubscriptionKey,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply performs one POST and returns the assistant text.
func (c *Client) Reply(ctx context.Context, req chat.SessionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.subscriptionKey != "" {
		httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("endpoint returned non-success status",
			zap.String("sessionId", req.SessionID),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: %s", ErrEndpointStatus, resp.Status)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	reply, err := ExtractReply(respBody)
	if err != nil {
		return "", err
	}

	c.logger.Debug("endpoint replied",
		zap.String("sessionId", req.SessionID),
		zap.Int("length", len(reply)))
	return reply, nil
}
