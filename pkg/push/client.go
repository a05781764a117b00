// Package push provides a client for the mobile push gateway.
//
// The gateway speaks an FCM-style JSON API: one POST per device token, the
// response carrying the provider-assigned message identifier used later to
// correlate delivery callbacks.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storelane/notification-service/pkg/gateway"
)

// Client sends push messages through the push gateway.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a push gateway client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

// Send pushes a message to a single device token and returns the provider
// message identifier.
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	payload, err := json.Marshal(sendRequest{Token: token, Title: title, Body: body, Data: data})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", &gateway.APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out sendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return out.MessageID, nil
}
