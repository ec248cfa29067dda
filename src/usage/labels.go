package usage

import (
	"strings"
	"time"

	"github.com/raulisai/Gateway-IA/src/models"
)

const (
	SlowLatency = 10 * time.Second
	FastLatency = 500 * time.Millisecond
)

// CheapModels is consulted before StrongModels, so "gpt-4o-mini" is cheap
// even though it contains "gpt-4o".
var CheapModels = []string{"-mini", "haiku", "flash", "instant", "8b", "gpt-3.5", "gemma"}

var StrongModels = []string{"opus", "sonnet", "gpt-4", "reasoner", "o1-", "o3-", "-pro", "70b"}

type modelClass int

const (
	classOther modelClass = iota
	classCheap
	classStrong
)

func classify(model string) modelClass {
	m := strings.ToLower(model)
	for _, p := range CheapModels {
		if strings.Contains(m, p) {
			return classCheap
		}
	}
	for _, p := range StrongModels {
		if strings.Contains(m, p) {
			return classStrong
		}
	}
	return classOther
}

// AutoLabel compares the predicted tier with what the call revealed. Only
// the first matching rule applies.
func AutoLabel(predicted models.Complexity, model string, latency time.Duration) *models.AutoLabel {
	label := &models.AutoLabel{Predicted: predicted, Actual: predicted}
	class := classify(model)
	lowTier := predicted == models.ComplexitySimple || predicted == models.ComplexityModerate
	highTier := predicted == models.ComplexityComplex || predicted == models.ComplexityExpert

	switch {
	case class == classStrong && lowTier:
		label.Actual, label.Reason = predicted.Up(), "router escalated to strong model"
	case class == classCheap && highTier:
		label.Actual, label.Reason = predicted.Down(), "router downgraded to cheap model"
	case latency > SlowLatency && predicted == models.ComplexitySimple:
		label.Actual, label.Reason = predicted.Up(), "High latency for simple task"
	case latency < FastLatency && highTier:
		label.Actual, label.Reason = predicted.Down(), "over-provisioned"
	default:
		return label
	}
	label.Discrepancy = true
	return label
}
