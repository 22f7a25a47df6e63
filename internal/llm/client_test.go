// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/morganforge/parley/internal/model"
)

func TestBuildMessages(t *testing.T) {
	history := []model.Message{
		model.NewUserMessage("earlier question"),
		model.NewAssistantMessage("earlier answer", model.Usage{PromptTokens: 5, CompletionTokens: 3, TotalTokens: 8}),
	}

	msgs := BuildMessages("You are terse.", history, "new question")

	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[0].Content != "You are terse." {
		t.Errorf("system message = %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "earlier question" {
		t.Errorf("history[0] = %+v", msgs[1])
	}
	if msgs[2].Role != "assistant" || msgs[2].Content != "earlier answer" {
		t.Errorf("history[1] = %+v", msgs[2])
	}
	if msgs[3].Role != openai.ChatMessageRoleUser || msgs[3].Content != "new question" {
		t.Errorf("prompt message = %+v", msgs[3])
	}
}

func TestBuildMessagesNoHistory(t *testing.T) {
	msgs := BuildMessages("persona", nil, "hello")
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
}

func TestComplete(t *testing.T) {
	var gotReq openai.ChatCompletionRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "the answer"}},
			},
			Usage: openai.Usage{PromptTokens: 42, CompletionTokens: 7, TotalTokens: 49},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client := NewClient("sk-test-key-0123456789", ts.URL+"/v1", 5*time.Second)

	history := []model.Message{model.NewUserMessage("q1")}
	reply, err := client.Complete(context.Background(), "persona", history, "q2", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if reply.Content != "the answer" {
		t.Errorf("Content = %q", reply.Content)
	}
	if reply.Usage.PromptTokens != 42 || reply.Usage.CompletionTokens != 7 || reply.Usage.TotalTokens != 49 {
		t.Errorf("Usage = %+v", reply.Usage)
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 3 {
		t.Fatalf("request carried %d messages, want 3", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "persona" {
		t.Errorf("request system message = %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[2].Role != "user" || gotReq.Messages[2].Content != "q2" {
		t.Errorf("request prompt message = %+v", gotReq.Messages[2])
	}
}

func TestCompleteMissingUsage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// No usage block in the response
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer ts.Close()

	client := NewClient("sk-test-key-0123456789", ts.URL+"/v1", 5*time.Second)
	reply, err := client.Complete(context.Background(), "p", nil, "q", "gpt-4o")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !reply.Usage.IsZero() {
		t.Errorf("Usage = %+v, want zero", reply.Usage)
	}
}

func TestCompleteAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	client := NewClient("sk-bad-key-0123456789", ts.URL+"/v1", 5*time.Second)
	_, err := client.Complete(context.Background(), "p", nil, "q", "gpt-4o")
	if err == nil {
		t.Fatal("expected error from 401 response")
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	client := NewClient("sk-test-key-0123456789", ts.URL+"/v1", 5*time.Second)
	_, err := client.Complete(context.Background(), "p", nil, "q", "gpt-4o")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env-key-0123456789")

	if got := ResolveAPIKey("sk-session-key-01234"); got != "sk-session-key-01234" {
		t.Errorf("session key not preferred: %q", got)
	}
	if got := ResolveAPIKey(""); got != "sk-env-key-0123456789" {
		t.Errorf("env fallback = %q", got)
	}

	t.Setenv("OPENAI_API_KEY", "")
	if got := ResolveAPIKey(""); got != "" {
		t.Errorf("empty resolution = %q", got)
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"sk-0123456789abcdef0123456789", true},
		{"  sk-0123456789abcdef0123456789  ", true},
		{"sk-short", false},
		{"pk-0123456789abcdef0123456789", false},
		{"", false},
		{"0123456789abcdef0123456789", false},
	}

	for _, tc := range tests {
		if got := ValidateAPIKey(tc.key); got != tc.want {
			t.Errorf("ValidateAPIKey(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}
