package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/raulisai/Gateway-IA/src/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind models.ErrorKind
	}{
		{"openai 401", &openai.APIError{HTTPStatusCode: 401}, models.KindUpstreamAuth},
		{"openai 403", &openai.APIError{HTTPStatusCode: 403}, models.KindUpstreamAuth},
		{"openai 429", &openai.APIError{HTTPStatusCode: 429}, models.KindUpstreamTransient},
		{"openai 503 request error", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("bad gateway")}, models.KindUpstreamTransient},
		{"openai 400", &openai.APIError{HTTPStatusCode: 400}, models.KindUpstreamFatal},
		{"langchaingo text", errors.New("API returned unexpected status code: 502: upstream"), models.KindUpstreamTransient},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), models.KindUpstreamTransient},
		{"network", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, models.KindUpstreamTransient},
		{"unknown", errors.New("something odd"), models.KindUpstreamFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("openai", tt.err)
			assert.Equal(t, tt.kind, models.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.Nil(t, Classify("openai", nil))
	assert.Equal(t, context.Canceled, Classify("openai", context.Canceled))

	existing := models.NewNoCredentialError("openai")
	assert.Same(t, existing, Classify("openai", existing))
}

func TestClassify_DeadlineMapsToGatewayTimeout(t *testing.T) {
	var gwErr *models.Error
	err := Classify("openai", context.DeadlineExceeded)
	assert.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 504, gwErr.HTTPStatus())
}

func TestProviderForModel(t *testing.T) {
	tests := []struct {
		model    string
		provider string
		ok       bool
	}{
		{"claude-3-5-sonnet-20241022", Anthropic, true},
		{"gemini-1.5-pro", Google, true},
		{"deepseek-chat", DeepSeek, true},
		{"gpt-4o-mini", OpenAI, true},
		{"o1-preview", OpenAI, true},
		{"o3-mini", OpenAI, true},
		{"llama-3.1-70b-versatile", Groq, true},
		{"mixtral-8x7b-32768", Groq, true},
		{"gemma2-9b-it", Groq, true},
		{"mystery-model", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, ok := ProviderForModel(tt.model)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.provider, provider)
		})
	}
}
