package ollama

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Format != "json" {
			t.Fatalf("expected json format, got %q", req.Format)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": `{"groups":[]}`},
			"done":    true,
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "llama3.2"})
	content, err := client.CompleteJSON(t.Context(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"groups":[]}` {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": `{"ok":true}`},
			"done":    true,
		})
	}))
	defer server.Close()

	client := NewClient(
		Config{BaseURL: server.URL, Model: "llama3.2"},
		WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.CompleteJSON(t.Context(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestCompleteJSONRequiresPrompts(t *testing.T) {
	client := NewClient(Config{Model: "llama3.2"})
	if _, err := client.CompleteJSON(t.Context(), "", "user"); err == nil {
		t.Fatal("expected error for empty system prompt")
	}
}
