package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/registry"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestChat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(completionResponse("Correct. rating: [[8]]")); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := New("gpt-4o-mini",
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
	)

	text, err := client.Chat(context.Background(), "You are a judge.", "Rate this: 2")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if text != "Correct. rating: [[8]]" {
		t.Errorf("Chat() = %q", text)
	}

	if got.Model != "gpt-4o-mini" {
		t.Errorf("request model = %q", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("request has %d messages, want system + user", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "You are a judge." {
		t.Errorf("system message = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "Rate this: 2" {
		t.Errorf("user message = %+v", got.Messages[1])
	}
}

func TestChatOmitsEmptySystemMessage(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("[[5]]"))
	}))
	defer server.Close()

	client := New("gpt-4o-mini", WithAPIKey("test-key"), WithBaseURL(server.URL))
	if _, err := client.Chat(context.Background(), "", "prompt"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("request messages = %+v, want single user turn", got.Messages)
	}
}

func TestChatRetriesThenFails(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New("gpt-4o-mini",
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
		WithMaxTries(2),
	)

	_, err := client.Chat(context.Background(), "", "prompt")
	if !errors.Is(err, api.ErrModelCall) {
		t.Fatalf("Chat() error = %v, want ErrModelCall", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, want 2 attempts", got)
	}
}

func TestRegisterFactory(t *testing.T) {
	r := registry.New()
	if err := Register(r); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	factory, kind, err := r.Lookup("OpenAIChatAPI")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if kind != registry.KindLanguageModel {
		t.Errorf("Lookup() kind = %v, want language_model", kind)
	}

	instance, err := factory(map[string]any{
		"model":     "gpt-4o-mini",
		"api_key":   "test-key",
		"max_tries": 5,
	})
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if _, ok := instance.(api.LanguageModel); !ok {
		t.Errorf("factory returned %T, want api.LanguageModel", instance)
	}

	if _, err := factory(map[string]any{"api_key": "k"}); !errors.Is(err, api.ErrInvalidArguments) {
		t.Errorf("factory without model error = %v, want ErrInvalidArguments", err)
	}
	if _, err := factory(map[string]any{"model": "m", "bogus": 1}); !errors.Is(err, api.ErrInvalidArguments) {
		t.Errorf("factory with extraneous argument error = %v, want ErrInvalidArguments", err)
	}
}
