package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vigil/internal/usecase"
)

// Client delivers notifications and pages through the surrounding
// notification service's HTTP API.
type Client struct {
	baseURL string
	httpDo  func(*http.Request) (*http.Response, error)
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("notify base url is required")
	}
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpDo:  doer,
	}, nil
}

type notifyRequest struct {
	TenantID    string    `json:"tenant_id"`
	Recipients  []string  `json:"recipients"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	ViolationID string    `json:"violation_id"`
	ActionID    string    `json:"action_id"`
	SentAt      time.Time `json:"sent_at"`
}

type pageRequest struct {
	TenantID    string    `json:"tenant_id"`
	Target      string    `json:"target"`
	Message     string    `json:"message"`
	ViolationID string    `json:"violation_id"`
	ActionID    string    `json:"action_id"`
	SentAt      time.Time `json:"sent_at"`
}

func (c *Client) Notify(ctx context.Context, n usecase.Notification) error {
	body := notifyRequest{
		TenantID:    n.TenantID,
		Recipients:  n.Recipients,
		Title:       n.Title,
		Message:     n.Message,
		ViolationID: n.ViolationID,
		ActionID:    n.ActionID,
		SentAt:      time.Now().UTC(),
	}
	return c.post(ctx, "/v1/notifications", body)
}

func (c *Client) Page(ctx context.Context, p usecase.Page) error {
	body := pageRequest{
		TenantID:    p.TenantID,
		Target:      p.Target,
		Message:     p.Message,
		ViolationID: p.ViolationID,
		ActionID:    p.ActionID,
		SentAt:      time.Now().UTC(),
	}
	return c.post(ctx, "/v1/pages", body)
}

// Disabled stands in when no notify service is configured. Every delivery
// fails, which surfaces through the normal action retry path.
type Disabled struct{}

func (Disabled) Notify(context.Context, usecase.Notification) error {
	return errors.New("notify service not configured")
}

func (Disabled) Page(context.Context, usecase.Page) error {
	return errors.New("notify service not configured")
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo(req)
	if err != nil {
		return fmt.Errorf("notify service: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify service: unexpected status %d", resp.StatusCode)
	}
	return nil
}
