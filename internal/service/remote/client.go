package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// Apology replaces the reply whenever the endpoint cannot be reached.
	Apology = "I'm sorry, I'm having trouble connecting right now. Please try again later."
	// EmptyReply is used when the endpoint answers without a response body.
	EmptyReply = "Sorry, I couldn't process that request."

	DefaultTimeout = 10 * time.Second
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Client forwards user text to a chat endpoint in a single exchange.
// It never returns an error: failures degrade to fixed text.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for endpoint. A zero timeout uses DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts message and returns the endpoint's reply text.
func (c *Client) Send(ctx context.Context, message string) string {
	reply, err := c.exchange(ctx, message)
	if err != nil {
		c.logger.Error("error sending message to API",
			zap.String("endpoint", c.endpoint),
			zap.Error(err))
		return Apology
	}
	if reply == "" {
		return EmptyReply
	}
	return reply
}

// Respond lets the client act as a session responder.
func (c *Client) Respond(ctx context.Context, userText string) string {
	return c.Send(ctx, userText)
}

func (c *Client) exchange(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("network response was not ok: status %d", resp.StatusCode)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return payload.Response, nil
}
