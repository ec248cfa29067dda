package models

import (
	"time"
)

// AutoLabel records whether the observed outcome disagreed with the
// classifier's tier.
type AutoLabel struct {
	Predicted   Complexity `json:"predicted"`
	Actual      Complexity `json:"actual"`
	Discrepancy bool       `json:"discrepancy"`
	Reason      string     `json:"reason,omitempty"`
}

type UsageMetadata struct {
	Classification *ClassificationResult `json:"classification,omitempty"`
	Routing        *RoutingInfo          `json:"routing,omitempty"`
	AutoLabel      *AutoLabel            `json:"auto_label,omitempty"`
	Error          string                `json:"error,omitempty"`
	ErrorKind      ErrorKind             `json:"error_kind,omitempty"`
}

// UsageRecord is one row of the usage log, written for every gateway call.
type UsageRecord struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	Tenant       string        `gorm:"index;size:128" json:"tenant"`
	Endpoint     string        `gorm:"size:128" json:"endpoint"`
	Provider     string        `gorm:"size:64" json:"provider"`
	Model        string        `gorm:"index;size:128" json:"model"`
	Complexity   Complexity    `gorm:"size:16" json:"complexity"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	TotalTokens  int           `json:"total_tokens"`
	Cost         float64       `json:"cost"`
	LatencyMS    int64         `json:"latency_ms"`
	CacheHit     bool          `json:"cache_hit"`
	Success      bool          `json:"success"`
	StatusCode   int           `json:"status_code"`
	Metadata     UsageMetadata `gorm:"serializer:json;type:text" json:"metadata"`
	CreatedAt    time.Time     `gorm:"index" json:"created_at"`
}

type ModelUsage struct {
	Model       string  `json:"model"`
	Requests    int64   `json:"requests"`
	TotalTokens int64   `json:"total_tokens"`
	Cost        float64 `json:"cost"`
}

type UsageSummary struct {
	Tenant       string       `json:"tenant"`
	Requests     int64        `json:"requests"`
	CacheHits    int64        `json:"cache_hits"`
	Errors       int64        `json:"errors"`
	InputTokens  int64        `json:"input_tokens"`
	OutputTokens int64        `json:"output_tokens"`
	Cost         float64      `json:"cost"`
	ByModel      []ModelUsage `json:"by_model"`
}
