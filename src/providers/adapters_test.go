package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raulisai/Gateway-IA/src/models"
)

const openAICompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-mini-2024-07-18",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
}`

func userRequest(model, text string) *models.GenerationRequest {
	return &models.GenerationRequest{
		ModelID:  model,
		Messages: []models.Message{{Role: models.RoleUser, Content: text}},
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, openAICompletion)
	}))
	defer server.Close()

	temp := 0.3
	req := userRequest("gpt-4o-mini", "hi")
	req.Temperature = &temp
	req.MaxTokens = 50

	resp, err := NewOpenAI(Options{BaseURL: server.URL}).Generate(context.Background(), req, "sk-test")
	require.NoError(t, err)

	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.UpstreamModel)
	assert.Equal(t, models.Usage{InputTokens: 9, OutputTokens: 3, TotalTokens: 12}, resp.Usage)
	assert.NotEmpty(t, resp.Raw)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.3, body["temperature"], 1e-6)
	assert.EqualValues(t, 50, body["max_tokens"])
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","model":"gpt-4o","choices":[],"usage":{}}`)
	}))
	defer server.Close()

	resp, err := NewOpenAI(Options{BaseURL: server.URL}).Generate(context.Background(), userRequest("gpt-4o", "hi"), "sk")
	require.NoError(t, err)
	assert.Equal(t, "", resp.Content)
	assert.Equal(t, models.FinishReasonIncomplete, resp.FinishReason)
}

func TestDeepSeekProvider_Name(t *testing.T) {
	p := NewDeepSeek(Options{})
	assert.Equal(t, DeepSeek, p.Name())
	assert.Equal(t, deepSeekBaseURL, p.opts.BaseURL)
}

func TestAnthropicProvider_Generate(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
		  "id": "msg_1", "type": "message", "role": "assistant",
		  "model": "claude-3-5-sonnet-20241022",
		  "content": [{"type": "text", "text": "Bonjour"}],
		  "stop_reason": "end_turn",
		  "usage": {"input_tokens": 12, "output_tokens": 4}
		}`)
	}))
	defer server.Close()

	req := &models.GenerationRequest{
		ModelID: "claude-3-5-sonnet-20241022",
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "Answer in French"},
			{Role: models.RoleUser, Content: "Hello"},
		},
	}
	resp, err := NewAnthropic(Options{BaseURL: server.URL}).Generate(context.Background(), req, "sk-ant")
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, models.Usage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16}, resp.Usage)
	assert.EqualValues(t, anthropicDefaultMaxTokens, body["max_tokens"])
	assert.NotNil(t, body["system"])
	assert.Len(t, body["messages"], 1)
}

func TestAnthropicProvider_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer server.Close()

	_, err := NewAnthropic(Options{BaseURL: server.URL}).Generate(context.Background(), userRequest("claude-3-haiku", "hi"), "bad")
	require.Error(t, err)
	assert.True(t, models.IsKind(Classify(Anthropic, err), models.KindUpstreamAuth))
}

func TestGroqProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
		  "id": "c1", "object": "chat.completion", "model": "llama-3.1-8b-instant",
		  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Quick answer"}, "finish_reason": "stop"}],
		  "usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
		}`)
	}))
	defer server.Close()

	resp, err := NewGroq(Options{BaseURL: server.URL}).Generate(context.Background(), userRequest("llama-3.1-8b-instant", "hi"), "gsk")
	require.NoError(t, err)

	assert.Equal(t, "Quick answer", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestGroqProvider_StatusFromError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"over capacity","type":"server_error"}}`)
	}))
	defer server.Close()

	_, err := NewGroq(Options{BaseURL: server.URL}).Generate(context.Background(), userRequest("llama-3.1-8b-instant", "hi"), "gsk")
	require.Error(t, err)
	assert.True(t, models.IsKind(Classify(Groq, err), models.KindUpstreamTransient))
}

func TestGoogleProvider_Generate(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash:generateContent")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
		  "candidates": [{"content": {"role": "model", "parts": [{"text": "Hola"}]}, "finishReason": "STOP"}],
		  "usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 1, "totalTokenCount": 4},
		  "modelVersion": "gemini-1.5-flash-002"
		}`)
	}))
	defer server.Close()

	resp, err := NewGoogle(Options{BaseURL: server.URL}).Generate(context.Background(), userRequest("gemini-1.5-flash", "hi"), "g-key")
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "Hola", resp.Content)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, "gemini-1.5-flash-002", resp.UpstreamModel)
	assert.Equal(t, models.Usage{InputTokens: 3, OutputTokens: 1, TotalTokens: 4}, resp.Usage)
}

func TestGoogleProvider_SafetyBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"promptFeedback": {"blockReason": "SAFETY"}}`)
	}))
	defer server.Close()

	resp, err := NewGoogle(Options{BaseURL: server.URL}).Generate(context.Background(), userRequest("gemini-1.5-flash", "hi"), "g-key")
	require.NoError(t, err)
	assert.Equal(t, "", resp.Content)
	assert.Equal(t, models.FinishReasonIncomplete, resp.FinishReason)
}

func TestNewDefaultAdapters(t *testing.T) {
	adapters := NewDefaultAdapters(map[string]string{Groq: "http://groq.local"}, nil)

	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name()
	}
	assert.ElementsMatch(t, []string{OpenAI, DeepSeek, Anthropic, Google, Groq}, names)
}
