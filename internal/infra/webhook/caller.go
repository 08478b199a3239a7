package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"vigil/internal/usecase"
)

// Caller posts escalation payloads to operator-configured webhook URLs.
// Any non-2xx response counts as a delivery failure; the retry policy lives
// in the executor, not here.
type Caller struct {
	httpDo func(*http.Request) (*http.Response, error)
}

func NewCaller(httpClient *http.Client) *Caller {
	doer := http.DefaultClient.Do
	if httpClient != nil {
		doer = httpClient.Do
	}
	return &Caller{httpDo: doer}
}

func (c *Caller) Call(ctx context.Context, url string, payload usecase.WebhookPayload) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
