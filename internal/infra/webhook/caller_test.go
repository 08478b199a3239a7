package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"vigil/internal/usecase"
)

func TestCaller_PostsPayload(t *testing.T) {
	var gotURL string
	var got usecase.WebhookPayload
	caller := NewCaller(nil)
	caller.httpDo = func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
	}

	payload := usecase.WebhookPayload{
		ViolationID: "v1",
		ActionID:    "a1",
		ActionType:  "Webhook",
		Timestamp:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := caller.Call(context.Background(), "https://hooks.example.com/sla", payload); err != nil {
		t.Fatalf("call: %v", err)
	}
	if gotURL != "https://hooks.example.com/sla" {
		t.Fatalf("unexpected url %q", gotURL)
	}
	if got.ViolationID != "v1" || got.ActionID != "a1" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestCaller_NonSuccessStatusIsError(t *testing.T) {
	caller := NewCaller(nil)
	caller.httpDo = func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	if err := caller.Call(context.Background(), "https://hooks.example.com/sla", usecase.WebhookPayload{}); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestCaller_TransportErrorSurfaces(t *testing.T) {
	caller := NewCaller(nil)
	caller.httpDo = func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}
	if err := caller.Call(context.Background(), "https://hooks.example.com/sla", usecase.WebhookPayload{}); err == nil {
		t.Fatalf("expected transport error")
	}
}
