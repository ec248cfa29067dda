package providers

import (
	"net/http"
	"strings"

	"github.com/raulisai/Gateway-IA/src/models"
)

const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Google    = "google"
	Groq      = "groq"
	DeepSeek  = "deepseek"
)

// Heuristic maps a model id fragment to its provider when the model is not
// in the registry.
type Heuristic struct {
	Pattern  string
	Provider string
	Prefix   bool
}

// ProviderHeuristics is evaluated in order, first match wins.
var ProviderHeuristics = []Heuristic{
	{Pattern: "claude", Provider: Anthropic},
	{Pattern: "gemini", Provider: Google},
	{Pattern: "deepseek", Provider: DeepSeek},
	{Pattern: "gpt", Provider: OpenAI},
	{Pattern: "o1", Provider: OpenAI, Prefix: true},
	{Pattern: "o3", Provider: OpenAI, Prefix: true},
	{Pattern: "llama", Provider: Groq},
	{Pattern: "mixtral", Provider: Groq},
	{Pattern: "gemma", Provider: Groq},
	{Pattern: "groq", Provider: Groq},
}

// ProviderForModel guesses the provider of an unregistered model id.
func ProviderForModel(modelID string) (string, bool) {
	id := strings.ToLower(modelID)
	for _, h := range ProviderHeuristics {
		if h.Prefix && strings.HasPrefix(id, h.Pattern) {
			return h.Provider, true
		}
		if !h.Prefix && strings.Contains(id, h.Pattern) {
			return h.Provider, true
		}
	}
	return "", false
}

// Options carries the transport settings shared by every adapter.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewDefaultAdapters builds one adapter per supported provider. baseURLs
// overrides the upstream endpoint per provider name.
func NewDefaultAdapters(baseURLs map[string]string, httpClient *http.Client) []models.Provider {
	opts := func(name string) Options {
		return Options{BaseURL: baseURLs[name], HTTPClient: httpClient}
	}
	return []models.Provider{
		NewOpenAI(opts(OpenAI)),
		NewDeepSeek(opts(DeepSeek)),
		NewAnthropic(opts(Anthropic)),
		NewGoogle(opts(Google)),
		NewGroq(opts(Groq)),
	}
}

func incomplete(content string, finish string) string {
	if content == "" {
		return models.FinishReasonIncomplete
	}
	return finish
}
