package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onnwee/ytchat-relay/chat"
)

// APIClient reads history and emojis from the relay's HTTP API.
type APIClient struct {
	client *resty.Client
}

// NewAPIClient returns a client for the relay at baseURL (e.g. http://localhost:3000).
func NewAPIClient(baseURL string) *APIClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")
	return &APIClient{client: c}
}

// History fetches GET /api/chats.
func (a *APIClient) History(ctx context.Context) ([]chat.Event, error) {
	var events []chat.Event
	resp, err := a.client.R().SetContext(ctx).SetResult(&events).Get("/api/chats")
	if err != nil {
		return nil, fmt.Errorf("get /api/chats: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get /api/chats: status %d", resp.StatusCode())
	}
	return events, nil
}

type emojisResponse struct {
	Emojis map[string]string `json:"emojis"`
}

// Emojis fetches GET /api/emojis.
func (a *APIClient) Emojis(ctx context.Context) (map[string]string, error) {
	var body emojisResponse
	resp, err := a.client.R().SetContext(ctx).SetResult(&body).Get("/api/emojis")
	if err != nil {
		return nil, fmt.Errorf("get /api/emojis: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get /api/emojis: status %d", resp.StatusCode())
	}
	if body.Emojis == nil {
		body.Emojis = map[string]string{}
	}
	return body.Emojis, nil
}
