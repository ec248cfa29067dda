package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/raulisai/Gateway-IA/src/models"
)

type canonicalMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type canonicalRequest struct {
	Messages []canonicalMessage `json:"messages"`
	Params   map[string]any     `json:"params"`
}

// Fingerprint derives the cache key for a tenant's request. Params are
// filtered of absent values and serialized with sorted keys, so insertion
// order never changes the key.
func Fingerprint(tenant string, messages []models.Message, params map[string]any) string {
	req := canonicalRequest{
		Messages: make([]canonicalMessage, len(messages)),
		Params:   make(map[string]any, len(params)),
	}
	for i, m := range messages {
		req.Messages[i] = canonicalMessage{Role: m.Role, Content: m.Content, Name: m.Name}
	}
	for k, v := range params {
		if !absent(v) {
			req.Params[k] = v
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		payload = []byte(fmt.Sprintf("%#v", req))
	}

	h := sha256.New()
	h.Write([]byte(tenant))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func absent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	case reflect.Slice:
		return rv.Len() == 0
	}
	return false
}

// RequestParams collects the request fields that change the answer.
func RequestParams(req *models.GenerationRequest, strategy models.Strategy) map[string]any {
	params := map[string]any{
		"strategy":       string(strategy),
		"temperature":    req.Temperature,
		"top_p":          req.TopP,
		"stop_sequences": req.StopSequences,
		"max_cost":       req.MaxCost,
	}
	if req.MaxTokens > 0 {
		params["max_tokens"] = req.MaxTokens
	}
	if req.ModelID != "" {
		params["model_id"] = req.ModelID
	}
	if req.ProviderPreference != "" {
		params["provider_preference"] = req.ProviderPreference
	}
	return params
}
