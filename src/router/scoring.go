package router

import (
	"strings"

	"github.com/raulisai/Gateway-IA/src/models"
)

// CostCeiling is the combined per-1k price that scores zero on cost.
const CostCeiling = 0.04

const (
	defaultSpeedScore   = 50
	defaultQualityScore = 60
)

// ScoreRule assigns Score to model ids containing Pattern.
type ScoreRule struct {
	Pattern string
	Score   float64
}

// SpeedTable is matched in order against the lowercased model id.
var SpeedTable = []ScoreRule{
	{"instant", 98},
	{"groq", 98},
	{"llama", 95},
	{"mixtral", 95},
	{"gemma", 95},
	{"flash", 90},
	{"-mini", 90},
	{"haiku", 88},
	{"turbo", 70},
	{"sonnet", 70},
	{"deepseek-chat", 70},
	{"gpt-4o", 65},
	{"opus", 50},
	{"reasoner", 50},
}

// QualityTable is matched in order against the lowercased model id.
var QualityTable = []ScoreRule{
	{"reasoner", 96},
	{"deepseek-r1", 96},
	{"o1-", 96},
	{"o3-", 96},
	{"-mini", 80},
	{"flash", 80},
	{"haiku", 80},
	{"gpt-4o", 95},
	{"sonnet", 95},
	{"opus", 95},
	{"gemini-2.5-pro", 95},
	{"gemini-1.5-pro", 90},
	{"gpt-4", 90},
	{"deepseek-chat", 85},
	{"70b", 80},
	{"mixtral", 80},
}

func lookup(table []ScoreRule, modelID string, fallback float64) float64 {
	id := strings.ToLower(modelID)
	for _, rule := range table {
		if strings.Contains(id, rule.Pattern) {
			return rule.Score
		}
	}
	return fallback
}

func SpeedScore(modelID string) float64 {
	return lookup(SpeedTable, modelID, defaultSpeedScore)
}

func QualityScore(modelID string) float64 {
	return lookup(QualityTable, modelID, defaultQualityScore)
}

func CostScore(m models.ModelDefinition) float64 {
	return max(0, 100*(1-m.CostPer1K()/CostCeiling))
}

func subScores(m models.ModelDefinition) SubScores {
	return SubScores{
		Cost:    CostScore(m),
		Speed:   SpeedScore(m.ID),
		Quality: QualityScore(m.ID),
	}
}
