package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HendryAvila/analyser/internal/prompt"
)

// gatewayRequest is the subset of the chat completions body we assert on.
type gatewayRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newGateway starts a fake chat completions endpoint.
func newGateway(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"}, quietLogger())
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 11, "completion_tokens": 7, "total_tokens": 18},
	})
}

func TestComplete_Success(t *testing.T) {
	var got gatewayRequest
	var auth string
	client := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		writeCompletion(w, "Stay the course.")
	})

	resp, err := client.Complete(context.Background(), Request{
		Messages: []prompt.Turn{
			{Role: prompt.RoleSystem, Content: "be calm"},
			{Role: prompt.RoleUser, Content: "help"},
		},
		Temperature: ChatTemperature,
		MaxTokens:   ChatMaxTokens,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != "Stay the course." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 18 || resp.Usage.PromptTokens != 11 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != "test-model" || got.MaxTokens != 2000 || got.Temperature != 0.7 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "help" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestComplete_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantStatus int
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, ErrRateLimited, 429},
		{"quota exhausted", http.StatusPaymentRequired, `{"error":{"message":"pay up","type":"billing"}}`, ErrQuotaExhausted, 402},
		{"server error", http.StatusBadGateway, `bad gateway`, ErrUpstream, 500},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad","type":"invalid"}}`, ErrUpstream, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Complete(context.Background(), Request{
				Messages: []prompt.Turn{{Role: prompt.RoleUser, Content: "x"}},
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var se *StatusError
			if !errors.As(err, &se) || se.Status != tt.status {
				t.Errorf("StatusError = %+v, want status %d", se, tt.status)
			}
			if got := HTTPStatus(err); got != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestComplete_EmptyContent(t *testing.T) {
	client := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "")
	})
	_, err := client.Complete(context.Background(), Request{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestComplete_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, quietLogger())
	if client.Configured() {
		t.Error("client without API key should not be configured")
	}
	_, err := client.Complete(context.Background(), Request{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if HTTPStatus(err) != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", HTTPStatus(err))
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{newStatusError(429, ""), "Rate limits exceeded, please try again later."},
		{newStatusError(402, ""), "Service credits exhausted."},
		{newStatusError(503, "secret upstream detail"), "Chat failed"},
		{ErrNotConfigured, "AI service not configured"},
		{ErrEmptyResponse, "No response generated"},
	}
	for _, tt := range tests {
		if got := PublicMessage(tt.err, "Chat failed"); got != tt.want {
			t.Errorf("PublicMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
