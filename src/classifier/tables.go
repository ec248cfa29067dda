package classifier

import (
	"regexp"

	"github.com/raulisai/Gateway-IA/src/models"
)

// ScoreBucket maps token counts up to and including MaxTokens to a base score.
type ScoreBucket struct {
	MaxTokens int
	Score     float64
}

// BaseScoreTable is ascending. Counts above the last bound score OverflowScore.
var BaseScoreTable = []ScoreBucket{
	{MaxTokens: 100, Score: 0.5},
	{MaxTokens: 500, Score: 1.0},
	{MaxTokens: 1000, Score: 1.5},
	{MaxTokens: 2000, Score: 2.0},
	{MaxTokens: 4000, Score: 2.5},
	{MaxTokens: 8000, Score: 3.0},
	{MaxTokens: 16000, Score: 4.0},
}

const OverflowScore = 5.0

// MaxMultiplier caps the product of all matched feature multipliers.
const MaxMultiplier = 2.5

type FeaturePattern struct {
	Tag        string
	Pattern    *regexp.Regexp
	Multiplier float64
}

// FeatureTable is scanned in order; every matching row contributes its tag
// and multiplier.
var FeatureTable = []FeaturePattern{
	{"greeting", regexp.MustCompile(`(?i)^\s*(hi|hello|hey|hola|greetings|good (morning|afternoon|evening)|thanks|thank you)\b`), 0.5},
	{"simple_question", regexp.MustCompile(`(?i)^\s*(what is|what's|who is|who was|when was|define)\b`), 0.7},
	{"code", regexp.MustCompile(`(?i)(\bdef |\bfunction |\bclass |\bimport |\bconst |\blet |\bvar |=>|\breturn |\bfunc |#include)`), 1.3},
	{"sql", regexp.MustCompile(`\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\S]*?\b(FROM|INTO|SET|WHERE)\b`), 1.3},
	{"json", regexp.MustCompile(`\{\s*"[^"]+"\s*:`), 1.1},
	{"math", regexp.MustCompile(`(?i)(\b(integral|derivative|equation|theorem|prove|proof|matrix|probability)\b|\\frac|∑|∫|√)`), 1.4},
	{"refactor", regexp.MustCompile(`(?i)\b(refactor\w*|optimi[sz]e\w*|rewrite|clean up)\b`), 1.5},
	{"reasoning", regexp.MustCompile(`(?i)\b(explain|why|analy[sz]e|compare|evaluate|step[- ]by[- ]step|trade-?offs?|paso a paso|explica\w*)\b`), 1.4},
	{"architecture", regexp.MustCompile(`(?i)\b(architect\w*|system design|microservices?|scalab\w+|distributed systems?|arquitectura)\b`), 1.5},
}

type TierThreshold struct {
	Below float64
	Tier  models.Complexity
}

// TierTable is ascending; scores at or above the last bound are expert.
var TierTable = []TierThreshold{
	{Below: 1.5, Tier: models.ComplexitySimple},
	{Below: 3.0, Tier: models.ComplexityModerate},
	{Below: 5.0, Tier: models.ComplexityComplex},
}

type ProviderOverride struct {
	Tag      string
	Provider string
}

// ProviderOverrides is checked in order; the first tag present wins.
var ProviderOverrides = []ProviderOverride{
	{Tag: "reasoning", Provider: "deepseek"},
	{Tag: "architecture", Provider: "anthropic"},
	{Tag: "refactor", Provider: "anthropic"},
	{Tag: "code", Provider: "anthropic"},
	{Tag: "sql", Provider: "anthropic"},
	{Tag: "math", Provider: "openai"},
}

var DefaultProviders = map[models.Complexity]string{
	models.ComplexitySimple:   "google",
	models.ComplexityModerate: "openai",
	models.ComplexityComplex:  "anthropic",
	models.ComplexityExpert:   "google",
}
