package classifier

import (
	"fmt"
	"strings"

	"github.com/raulisai/Gateway-IA/src/models"
)

// Classifier scores request complexity and suggests a provider. It holds no
// mutable state besides the estimator's encoding cache and is safe for
// concurrent use.
type Classifier struct {
	tokens *TokenEstimator
}

func New(tokens *TokenEstimator) *Classifier {
	return &Classifier{tokens: tokens}
}

func (c *Classifier) Analyze(text string) *models.ClassificationResult {
	return c.classify(text, c.tokens.CountText(text, ""))
}

// AnalyzeMessages counts tokens with chat overhead for model (empty for the
// default encoding) and scans the concatenated message contents.
func (c *Classifier) AnalyzeMessages(messages []models.Message, model string) *models.ClassificationResult {
	var sb strings.Builder
	for _, msg := range messages {
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return c.classify(sb.String(), c.tokens.CountMessages(messages, model))
}

func (c *Classifier) classify(text string, tokens int) *models.ClassificationResult {
	base := baseScore(tokens)

	features := make([]string, 0, len(FeatureTable))
	compound := 1.0
	for _, f := range FeatureTable {
		if f.Pattern.MatchString(text) {
			features = append(features, f.Tag)
			compound *= f.Multiplier
		}
	}
	multiplier := min(compound, MaxMultiplier)

	final := base * multiplier
	tier := tierFor(final)
	provider, rule := suggestProvider(features, tier)

	return &models.ClassificationResult{
		Complexity:        tier,
		Tokens:            tokens,
		Features:          features,
		SuggestedProvider: provider,
		BaseScore:         base,
		Multiplier:        multiplier,
		FinalScore:        final,
		Rationale: fmt.Sprintf(
			"%d tokens (base %.2f), features [%s], multiplier %.2f, final score %.2f -> %s; provider %s (%s)",
			tokens, base, strings.Join(features, ", "), multiplier, final, tier, provider, rule,
		),
	}
}

func baseScore(tokens int) float64 {
	for _, bucket := range BaseScoreTable {
		if tokens <= bucket.MaxTokens {
			return bucket.Score
		}
	}
	return OverflowScore
}

func tierFor(score float64) models.Complexity {
	for _, t := range TierTable {
		if score < t.Below {
			return t.Tier
		}
	}
	return models.ComplexityExpert
}

func suggestProvider(features []string, tier models.Complexity) (string, string) {
	for _, o := range ProviderOverrides {
		for _, f := range features {
			if f == o.Tag {
				return o.Provider, "override for " + o.Tag
			}
		}
	}
	return DefaultProviders[tier], "default for " + string(tier)
}
