package models

import (
	"encoding/json"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// FinishReasonIncomplete marks an upstream reply that carried no content,
// usually a safety block or an empty candidate list.
const FinishReasonIncomplete = "error_or_safety"

type Message struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant function"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type GenerationRequest struct {
	Messages      []Message `json:"messages" binding:"required,min=1,dive"`
	ModelID       string    `json:"model_id,omitempty"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	Temperature   *float64  `json:"temperature,omitempty"`
	TopP          *float64  `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`

	// Routing hints
	ProviderPreference string   `json:"provider_preference,omitempty"`
	MaxCost            *float64 `json:"max_cost,omitempty"`
}

// WithModel returns a shallow copy of the request targeting another model id.
func (r *GenerationRequest) WithModel(modelID string) *GenerationRequest {
	cp := *r
	cp.ModelID = modelID
	return &cp
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type GenerationResponse struct {
	Content       string          `json:"content"`
	Usage         Usage           `json:"usage"`
	Model         string          `json:"model"`
	UpstreamModel string          `json:"upstream_model,omitempty"`
	Provider      string          `json:"provider,omitempty"`
	FinishReason  string          `json:"finish_reason"`
	RoutingInfo   *RoutingInfo    `json:"routing_info,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// Clone copies the response so the copy can be annotated without touching
// the original.
func (r *GenerationResponse) Clone() *GenerationResponse {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Raw != nil {
		cp.Raw = append(json.RawMessage(nil), r.Raw...)
	}
	if r.RoutingInfo != nil {
		info := *r.RoutingInfo
		info.FallbackModels = append([]string(nil), r.RoutingInfo.FallbackModels...)
		cp.RoutingInfo = &info
	}
	return &cp
}

type RoutingInfo struct {
	SelectedModel  string                `json:"selected_model"`
	FallbackModels []string              `json:"fallback_models,omitempty"`
	Strategy       Strategy              `json:"strategy"`
	Rationale      string                `json:"rationale"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	Attempts       int                   `json:"attempts"`
	CacheHit       bool                  `json:"cache_hit"`
	Latency        time.Duration         `json:"latency"`
}

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityExpert   Complexity = "expert"
)

var complexityOrder = []Complexity{ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityExpert}

func (c Complexity) rank() int {
	for i, tier := range complexityOrder {
		if tier == c {
			return i
		}
	}
	return -1
}

// Up returns the next harder tier, saturating at expert.
func (c Complexity) Up() Complexity {
	i := c.rank()
	if i < 0 || i == len(complexityOrder)-1 {
		return c
	}
	return complexityOrder[i+1]
}

// Down returns the next easier tier, saturating at simple.
func (c Complexity) Down() Complexity {
	i := c.rank()
	if i <= 0 {
		return c
	}
	return complexityOrder[i-1]
}

type ClassificationResult struct {
	Complexity        Complexity `json:"complexity"`
	Tokens            int        `json:"tokens"`
	Features          []string   `json:"detected_features"`
	SuggestedProvider string     `json:"recommended_provider"`
	BaseScore         float64    `json:"base_score"`
	Multiplier        float64    `json:"multiplier"`
	FinalScore        float64    `json:"final_score"`
	Rationale         string     `json:"reasoning"`
}

type ModelDefinition struct {
	ID              string  `json:"id" yaml:"id"`
	Provider        string  `json:"provider" yaml:"provider"`
	UpstreamModelID string  `json:"original_model_id" yaml:"original_model_id"`
	Name            string  `json:"name" yaml:"name"`
	CostPer1KInput  float64 `json:"cost_per_1k_input" yaml:"cost_per_1k_input"`
	CostPer1KOutput float64 `json:"cost_per_1k_output" yaml:"cost_per_1k_output"`
	ContextWindow   int     `json:"context_window" yaml:"context_window"`
	Active          bool    `json:"is_active" yaml:"is_active"`
}

func (m ModelDefinition) CostPer1K() float64 {
	return m.CostPer1KInput + m.CostPer1KOutput
}

type Strategy string

const (
	StrategyCost     Strategy = "cost"
	StrategySpeed    Strategy = "speed"
	StrategyQuality  Strategy = "quality"
	StrategyBalanced Strategy = "balanced"
)

type RoutingRequirements struct {
	InputTokens        int
	MaxOutputTokens    int
	RequiredFeatures   []string
	ProviderPreference string
	MaxCost            *float64
}

type ScoredModel struct {
	ModelID      string  `json:"model_id"`
	Provider     string  `json:"provider"`
	Score        float64 `json:"score"`
	CostScore    float64 `json:"cost_score"`
	SpeedScore   float64 `json:"speed_score"`
	QualityScore float64 `json:"quality_score"`
}

type RoutingResult struct {
	SelectedModel  string        `json:"selected_model"`
	FallbackModels []string      `json:"fallback_models"`
	ProposedModels []ScoredModel `json:"proposed_models"`
	Rationale      string        `json:"reasoning"`
	Strategy       Strategy      `json:"strategy"`
}

type CacheMetrics struct {
	Hits    int64         `json:"hits"`
	Misses  int64         `json:"misses"`
	HitRate float64       `json:"hit_rate"`
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"ttl"`
}
