// Package sms provides a client for the SMS gateway.
package sms

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

// Client sends text messages through the SMS gateway.
type Client struct {
	baseURL string
	apiKey  string
	sender  string
	client  *http.Client
}

// NewClient creates an SMS gateway client. The sender is the originating
// number or alphanumeric sender id.
func NewClient(baseURL, apiKey, sender string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers a text message to the given phone number and returns the
// provider message identifier.
func (c *Client) Send(ctx context.Context, phone, text string) (string, error) {
	payload, err := json.Marshal(sendRequest{From: c.sender, To: phone, Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sms", bytes.NewReader(payload))
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
