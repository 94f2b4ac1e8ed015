// Package voice provides a Bland outbound-calling client.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default voice and fallback task when no pathway is configured.
const (
	defaultVoice = "june"
	fallbackTask = "You're calling to demonstrate our AI voice assistant. Keep it brief and explain that this is a live demo."
)

// Client is the Bland API client.
type Client struct {
	baseURL    string
	apiKey     string
	webhookURL string
	httpClient *http.Client
}

// NewClient creates a new Bland client. webhookURL may be empty when no
// call-lifecycle webhook is configured.
func NewClient(baseURL, apiKey, webhookURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// callRequest is the POST /v1/calls payload.
type callRequest struct {
	PhoneNumber     string            `json:"phone_number"`
	Voice           string            `json:"voice"`
	PathwayID       string            `json:"pathway_id,omitempty"`
	Task            string            `json:"task,omitempty"`
	ReduceLatency   bool              `json:"reduce_latency"`
	Record          bool              `json:"record"`
	WaitForGreeting bool              `json:"wait_for_greeting"`
	WebhookURL      string            `json:"webhook_url,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// callResponse is the POST /v1/calls result.
type callResponse struct {
	Success bool   `json:"success"`
	CallID  string `json:"call_id"`
	Error   string `json:"error,omitempty"`
}

// PlaceCall starts an outbound call to a 10-digit US number. When pathwayID is
// empty the call falls back to a scripted task prompt.
func (c *Client) PlaceCall(ctx context.Context, digits10, pathwayID string) (string, error) {
	payload := callRequest{
		PhoneNumber:     "+1" + digits10,
		Voice:           defaultVoice,
		PathwayID:       pathwayID,
		ReduceLatency:   true,
		Record:          true,
		WaitForGreeting: true,
		WebhookURL:      c.webhookURL,
		Metadata: map[string]string{
			"source": "website demo",
			"phone":  "+1" + digits10,
		},
	}
	if pathwayID == "" {
		payload.Task = fallbackTask
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calls", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result callResponse
	if resp.StatusCode != http.StatusOK {
		if err := json.Unmarshal(respBody, &result); err == nil && result.Error != "" {
			return "", fmt.Errorf("voice API error [%d]: %s", resp.StatusCode, result.Error)
		}
		return "", fmt.Errorf("voice API error [%d]: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.CallID == "" {
		return "", fmt.Errorf("voice API returned no call id")
	}
	return result.CallID, nil
}
